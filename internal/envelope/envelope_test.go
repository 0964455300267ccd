package envelope

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixClock(t *testing.T, ms int64) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.UnixMilli(ms) }
	t.Cleanup(func() { now = prev })
}

func TestStatusCodeMapping(t *testing.T) {
	want := map[Code]int{
		CodeValidation:         http.StatusBadRequest,
		CodeBadRequest:         http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConflict:           http.StatusConflict,
		CodeRateLimited:        http.StatusTooManyRequests,
		CodeInternal:           http.StatusInternalServerError,
		CodeServiceUnavailable: http.StatusServiceUnavailable,
	}

	require.Len(t, Codes(), len(want))
	for _, c := range Codes() {
		t.Run(string(c), func(t *testing.T) {
			assert.Equal(t, want[c], StatusCode(NewError(c, "x")))
		})
	}
}

func TestStatusCodeDefaults(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusCode(nil))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(NewError("TEAPOT", "x")))
}

func TestSuccessEnvelope(t *testing.T) {
	fixClock(t, 1700000000123)

	env := Success(map[string]string{"_id": "abc"})
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	assert.Equal(t, http.StatusOK, env.Status())

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"_id":"abc"},"timestamp":1700000000123}`, string(raw))
}

func TestFailureEnvelope(t *testing.T) {
	fixClock(t, 42)

	env := Failure(CodeNotFound, "thing not found: t1")
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	require.NotNil(t, env.Error)
	assert.Equal(t, http.StatusNotFound, env.Status())

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"success":false,"data":null,"error":{"code":"NOT_FOUND","message":"thing not found: t1"},"timestamp":42}`,
		string(raw))
}

func TestErrorString(t *testing.T) {
	err := NewError(CodeConflict, "duplicate id")
	assert.Equal(t, "CONFLICT: duplicate id", err.Error())
}
