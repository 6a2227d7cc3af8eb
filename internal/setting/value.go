package setting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the shape held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindStringList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindStringList:
		return "string list"
	default:
		return "null"
	}
}

// Value is a setting value. The zero Value is null, which means "not yet
// hydrated" and is distinct from false, 0 and "".
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []string
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Number wraps a numeric value.
func Number(v float64) Value { return Value{kind: KindNumber, n: v} }

// Int wraps an integer value.
func Int(v int) Value { return Number(float64(v)) }

// String wraps a string.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Strings wraps a copy of a string list. A nil list becomes an empty list.
func Strings(v []string) Value {
	list := make([]string, len(v))
	copy(list, v)
	return Value{kind: KindStringList, list: list}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// AsInt returns the number rounded to the nearest integer.
func (v Value) AsInt() (int, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return int(math.Round(v.n)), true
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsStrings returns a copy of the list.
func (v Value) AsStrings() ([]string, bool) {
	if v.kind != KindStringList {
		return nil, false
	}
	return slices.Clone(v.list), true
}

// Equal reports structural equality.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindStringList:
		return slices.Equal(v.list, other.list)
	default:
		return true
	}
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	if v.kind == KindStringList {
		v.list = slices.Clone(v.list)
	}
	return v
}

// String renders the value for display.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "on"
		}
		return "off"
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	case KindStringList:
		return strings.Join(v.list, ", ")
	default:
		return "-"
	}
}

// MarshalJSON encodes the value as a plain JSON scalar or array.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	case KindStringList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null, booleans, numbers, strings and string arrays.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*v = Null()
		return nil
	}
	switch trimmed[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return fmt.Errorf("decode bool value: %w", err)
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("decode string value: %w", err)
		}
		*v = String(s)
	case '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("decode list value: %w", err)
		}
		*v = Strings(list)
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("decode number value: %w", err)
		}
		*v = Number(n)
	}
	return nil
}
