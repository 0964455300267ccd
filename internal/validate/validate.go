// Package validate checks request bodies against ordered field rules.
//
// Rules are evaluated in order and checking stops at the first failure,
// so callers control which missing field is reported.
package validate

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"ontology/internal/envelope"
)

// Kind is the expected JSON type of a field
type Kind int

const (
	NonEmptyString Kind = iota
	String
	Number
	Object
	Array
)

// Rule describes one field of a request body
type Rule struct {
	Field    string
	Kind     Kind
	Optional bool
}

// Required builds a rule for a field that must be present
func Required(field string, kind Kind) Rule {
	return Rule{Field: field, Kind: kind}
}

// Optional builds a rule that only type-checks a field when present
func Optional(field string, kind Kind) Rule {
	return Rule{Field: field, Kind: kind, Optional: true}
}

// Check validates body against rules and returns the first failure as a
// VALIDATION_ERROR, or nil when the body passes.
func Check(body []byte, rules []Rule) *envelope.Error {
	if !gjson.ValidBytes(body) {
		return envelope.NewError(envelope.CodeValidation, "request body must be a JSON object")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return envelope.NewError(envelope.CodeValidation, "request body must be a JSON object")
	}

	for _, rule := range rules {
		v := root.Get(escape(rule.Field))
		if !v.Exists() || v.Type == gjson.Null {
			if rule.Optional {
				continue
			}
			return envelope.NewError(envelope.CodeValidation, fmt.Sprintf("%s is required", rule.Field))
		}
		if msg := rule.check(v); msg != "" {
			return envelope.NewError(envelope.CodeValidation, msg)
		}
	}
	return nil
}

func (r Rule) check(v gjson.Result) string {
	switch r.Kind {
	case NonEmptyString:
		if v.Type != gjson.String {
			return r.Field + " must be a string"
		}
		if strings.TrimSpace(v.Str) == "" {
			if r.Optional {
				return r.Field + " must not be empty"
			}
			return r.Field + " is required"
		}
	case String:
		if v.Type != gjson.String {
			return r.Field + " must be a string"
		}
	case Number:
		if v.Type != gjson.Number {
			return r.Field + " must be a number"
		}
	case Object:
		if !v.IsObject() {
			return r.Field + " must be an object"
		}
	case Array:
		if !v.IsArray() {
			return r.Field + " must be an array"
		}
	}
	return ""
}

// escape protects gjson path metacharacters in plain field names
func escape(field string) string {
	var b strings.Builder
	for _, r := range field {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
