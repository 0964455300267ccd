package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResponseRecorderKeepsFirstStatus(t *testing.T) {
	inner := httptest.NewRecorder()
	rr := NewResponseRecorder(inner)

	rr.WriteHeader(http.StatusCreated)
	rr.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusCreated, rr.Status())
	assert.True(t, rr.WroteHeader())
	assert.Same(t, rr, NewResponseRecorder(rr))
	assert.Equal(t, http.StatusCreated, inner.Code)
}

func TestResponseRecorderDefaultsToOK(t *testing.T) {
	rr := NewResponseRecorder(httptest.NewRecorder())
	_, err := rr.Write([]byte("ok"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rr.Status())
	assert.True(t, rr.WroteHeader())
}

func TestResponseRecorderUnwrap(t *testing.T) {
	inner := httptest.NewRecorder()
	rr := NewResponseRecorder(inner)
	assert.Same(t, http.ResponseWriter(inner), rr.Unwrap())

	// the recorder forwards to the wrapped writer, which has no deadlines
	err := http.NewResponseController(rr).SetWriteDeadline(time.Time{})
	assert.ErrorIs(t, err, http.ErrNotSupported)
}
