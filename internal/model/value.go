package model

import (
	"encoding/json"
	"fmt"
)

// ValueKind discriminates the closed set of types an open-ended product
// attribute can carry.
type ValueKind int

const (
	KindNone ValueKind = iota
	KindNumber
	KindBoolean
	KindText
)

// Value is a tagged union for open-ended attribute maps (requirements,
// features). Products coming from the catalog carry arbitrary keys; known
// keys get named accessors on Product, unknown keys stay iterable.
type Value struct {
	Kind ValueKind
	Num  float64
	Bool bool
	Str  string
}

// None is the absent value. It is never best or worst and scores zero.
var None = Value{Kind: KindNone}

func Number(n float64) Value { return Value{Kind: KindNumber, Num: n} }

func Boolean(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }

func Text(s string) Value { return Value{Kind: KindText, Str: s} }

// IsNone reports whether the value is absent.
func (v Value) IsNone() bool { return v.Kind == KindNone }

// Truthy reports whether the value counts as "present and positive" for
// feature checks: true booleans, non-zero numbers, non-empty text.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBoolean:
		return v.Bool
	case KindNumber:
		return v.Num != 0
	case KindText:
		return v.Str != ""
	default:
		return false
	}
}

// MarshalJSON encodes the value as its bare JSON scalar (null when absent).
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBoolean:
		return json.Marshal(v.Bool)
	case KindText:
		return json.Marshal(v.Str)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a bare JSON scalar into the union. Nested objects
// and arrays are rejected: attribute maps are flat by contract.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case nil:
		*v = None
	case float64:
		*v = Number(val)
	case bool:
		*v = Boolean(val)
	case string:
		*v = Text(val)
	default:
		return fmt.Errorf("attribute value must be a scalar, got %T", raw)
	}
	return nil
}

// Attributes is an open-ended attribute bag keyed by criterion/feature name.
type Attributes map[string]Value

// Get returns the value for key, or None when the key is missing.
func (a Attributes) Get(key string) Value {
	if v, ok := a[key]; ok {
		return v
	}
	return None
}

// Has reports whether the named attribute is present and truthy.
func (a Attributes) Has(key string) bool {
	return a.Get(key).Truthy()
}
