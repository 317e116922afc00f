// Package params validates the loosely-typed property bags that task
// invocations carry (nova_config, source and target properties).
package params

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/oshost/internal/domain"
)

// Bag is a property bag as decoded from YAML or JSON.
type Bag = map[string]any

// MissingParameterError reports the first required key absent from a bag.
type MissingParameterError struct {
	Key      string
	Where    string
	Required []string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("required parameter %q is missing (under %s); required parameters are: %s",
		e.Key, e.Where, strings.Join(e.Required, ", "))
}

func (e *MissingParameterError) Unwrap() error { return domain.ErrMissingParameter }

// InvalidParameterError reports a key that must not be passed or whose
// value has the wrong shape.
type InvalidParameterError struct {
	Key    string
	Where  string
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("parameter %q must not be passed as given (under %s): %s", e.Key, e.Where, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error { return domain.ErrInvalidParameter }

// Require fails with a MissingParameterError naming the first key in keys
// that is absent from bag. It has no side effects.
func Require(bag Bag, keys []string, where string) error {
	for _, k := range keys {
		if _, ok := bag[k]; !ok {
			required := make([]string, len(keys))
			copy(required, keys)
			return &MissingParameterError{Key: k, Where: where, Required: required}
		}
	}
	return nil
}

// Invalid builds an InvalidParameterError.
func Invalid(key, where, reason string) error {
	return &InvalidParameterError{Key: key, Where: where, Reason: reason}
}

// Map returns the nested bag stored under key.
func Map(bag Bag, key, where string) (Bag, error) {
	if err := Require(bag, []string{key}, where); err != nil {
		return nil, err
	}
	m, ok := AsMap(bag[key])
	if !ok {
		return nil, Invalid(key, where, fmt.Sprintf("expected a mapping, got %T", bag[key]))
	}
	return m, nil
}

// String returns the string stored under key.
func String(bag Bag, key, where string) (string, error) {
	if err := Require(bag, []string{key}, where); err != nil {
		return "", err
	}
	s, ok := bag[key].(string)
	if !ok {
		return "", Invalid(key, where, fmt.Sprintf("expected a string, got %T", bag[key]))
	}
	return s, nil
}

// AsMap converts decoded mapping values to a Bag. yaml.v3 decodes nested
// mappings with non-string keys as map[any]any.
func AsMap(v any) (Bag, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(Bag, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// Clone returns a deep copy of bag so callers can transform it without
// touching the invocation's input.
func Clone(bag Bag) Bag {
	if bag == nil {
		return nil
	}
	out := make(Bag, len(bag))
	for k, v := range bag {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	if m, ok := AsMap(v); ok {
		return Clone(m)
	}
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}
