package thing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ValueType identifies the tag of a Value.
type ValueType int

// Value tags, in declaration order.
const (
	TypeNumber ValueType = iota
	TypeFloat
	TypeText
	TypeBoolean
)

// String returns the wire name of the type as used in descriptors.
func (t ValueType) String() string {
	switch t {
	case TypeNumber:
		return "number"
	case TypeFloat:
		return "float"
	case TypeText:
		return "string"
	case TypeBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// MarshalJSON serializes the type as its wire name.
func (t ValueType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses a wire type name.
func (t *ValueType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "number":
		*t = TypeNumber
	case "float":
		*t = TypeFloat
	case "string":
		*t = TypeText
	case "boolean":
		*t = TypeBoolean
	default:
		return fmt.Errorf("%w: unknown type %q", ErrTypeMismatch, s)
	}
	return nil
}

// Value is the tagged union used for property results and method
// arguments. Accessing a Value as the wrong tag is a programming error
// and fails with ErrTypeMismatch rather than coercing silently.
type Value struct {
	typ ValueType
	num int64
	flt float64
	str string
	b   bool
}

// Number constructs an integer Value.
func Number(n int64) Value { return Value{typ: TypeNumber, num: n} }

// Float constructs a floating-point Value.
func Float(f float64) Value { return Value{typ: TypeFloat, flt: f} }

// Text constructs a string Value.
func Text(s string) Value { return Value{typ: TypeText, str: s} }

// Boolean constructs a boolean Value.
func Boolean(b bool) Value { return Value{typ: TypeBoolean, b: b} }

// Type returns the Value's tag.
func (v Value) Type() ValueType { return v.typ }

// Number returns the integer payload, or ErrTypeMismatch for other tags.
func (v Value) Number() (int64, error) {
	if v.typ != TypeNumber {
		return 0, fmt.Errorf("%w: have %s, want number", ErrTypeMismatch, v.typ)
	}
	return v.num, nil
}

// Float returns the floating-point payload, or ErrTypeMismatch for other tags.
func (v Value) Float() (float64, error) {
	if v.typ != TypeFloat {
		return 0, fmt.Errorf("%w: have %s, want float", ErrTypeMismatch, v.typ)
	}
	return v.flt, nil
}

// Text returns the string payload, or ErrTypeMismatch for other tags.
func (v Value) Text() (string, error) {
	if v.typ != TypeText {
		return "", fmt.Errorf("%w: have %s, want string", ErrTypeMismatch, v.typ)
	}
	return v.str, nil
}

// Boolean returns the boolean payload, or ErrTypeMismatch for other tags.
func (v Value) Boolean() (bool, error) {
	if v.typ != TypeBoolean {
		return false, fmt.Errorf("%w: have %s, want boolean", ErrTypeMismatch, v.typ)
	}
	return v.b, nil
}

// MarshalJSON serializes the payload as the bare JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case TypeNumber:
		return json.Marshal(v.num)
	case TypeFloat:
		return json.Marshal(v.flt)
	case TypeText:
		return json.Marshal(v.str)
	case TypeBoolean:
		return json.Marshal(v.b)
	default:
		return nil, fmt.Errorf("%w: invalid tag %d", ErrTypeMismatch, int(v.typ))
	}
}

// UnmarshalJSON parses a JSON scalar into a tagged Value. Integer
// literals without a fraction or exponent become numbers; all other
// numeric literals become floats.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	switch x := raw.(type) {
	case json.Number:
		if !strings.ContainsAny(x.String(), ".eE") {
			n, err := x.Int64()
			if err == nil {
				*v = Number(n)
				return nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return fmt.Errorf("%w: bad numeric literal %q", ErrTypeMismatch, x.String())
		}
		*v = Float(f)
		return nil
	case string:
		*v = Text(x)
		return nil
	case bool:
		*v = Boolean(x)
		return nil
	default:
		return fmt.Errorf("%w: unsupported JSON value", ErrTypeMismatch)
	}
}
