package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ontology/internal/envelope"
)

var thingRules = []Rule{
	Required("type", NonEmptyString),
	Required("name", NonEmptyString),
	Required("groupId", NonEmptyString),
	Optional("properties", Object),
	Optional("status", String),
}

func TestCheckPasses(t *testing.T) {
	body := `{"type":"course","name":"X","groupId":"g1","properties":{}}`
	assert.Nil(t, Check([]byte(body), thingRules))
}

func TestCheckFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{"not json", `{"type":`, "request body must be a JSON object"},
		{"array body", `[1,2]`, "request body must be a JSON object"},
		{"missing first field", `{"name":"X","groupId":"g1"}`, "type is required"},
		{"first failure wins", `{"groupId":"g1"}`, "type is required"},
		{"empty string", `{"type":"course","name":"  ","groupId":"g1"}`, "name is required"},
		{"null is missing", `{"type":"course","name":null,"groupId":"g1"}`, "name is required"},
		{"wrong type", `{"type":7,"name":"X","groupId":"g1"}`, "type must be a string"},
		{"optional wrong type", `{"type":"c","name":"X","groupId":"g1","properties":"x"}`, "properties must be an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check([]byte(tt.body), thingRules)
			require.NotNil(t, err)
			assert.Equal(t, envelope.CodeValidation, err.Code)
			assert.Equal(t, tt.msg, err.Message)
		})
	}
}

func TestCheckNumber(t *testing.T) {
	rules := []Rule{Required("name", NonEmptyString), Required("value", Number)}

	assert.Nil(t, Check([]byte(`{"name":"LCP","value":1234.5}`), rules))

	err := Check([]byte(`{"name":"LCP","value":"fast"}`), rules)
	require.NotNil(t, err)
	assert.Equal(t, "value must be a number", err.Message)
}

func TestCheckDottedFieldName(t *testing.T) {
	rules := []Rule{Required("a.b", String)}

	assert.Nil(t, Check([]byte(`{"a.b":"x"}`), rules))
	require.NotNil(t, Check([]byte(`{"a":{"b":"x"}}`), rules))
}
