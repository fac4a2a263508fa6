package danktable

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind uint8

// Value kinds. The zero Kind is [KindAbsent], so a zero Value is the
// absent marker.
const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
	KindUnreadable
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindUnreadable:
		return "unreadable"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a single cell value: a closed tagged variant over the
// JSON-representable shapes plus two markers.
//
// The zero Value is the absent marker ("no value stored for this row"),
// distinct from [Null]. [KindUnreadable] marks a cell whose stored token
// could not be decoded; it preserves the raw token so rewrites don't
// destroy the original bytes.
//
// Values are immutable once constructed. Do not mutate the slices or maps
// passed to [List] and [MapValue] after construction.
type Value struct {
	kind Kind
	b    bool
	num  float64
	str  string // string payload, or raw token for KindUnreadable
	list []Value
	m    map[string]Value
}

// Absent returns the absent marker.
func Absent() Value { return Value{} }

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// String returns a text value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// List returns an ordered list value.
func List(elems ...Value) Value { return Value{kind: KindList, list: elems} }

// MapValue returns a mapping value.
func MapValue(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

// unreadable wraps a raw token that failed to decode.
func unreadable(token string) Value { return Value{kind: KindUnreadable, str: token} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether v is the absent marker.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsUnreadable reports whether v is an unreadable cell.
func (v Value) IsUnreadable() bool { return v.kind == KindUnreadable }

// AsBool returns the boolean payload.
// Returns [ErrTypeMismatch] if v is not a bool.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("%w: have %s, want bool", ErrTypeMismatch, v.kind)
	}

	return v.b, nil
}

// AsFloat returns the numeric payload.
// Returns [ErrTypeMismatch] if v is not a number.
func (v Value) AsFloat() (float64, error) {
	if v.kind != KindNumber {
		return 0, fmt.Errorf("%w: have %s, want number", ErrTypeMismatch, v.kind)
	}

	return v.num, nil
}

// AsInt returns the numeric payload truncated to an int64.
// Returns [ErrTypeMismatch] if v is not a number.
func (v Value) AsInt() (int64, error) {
	f, err := v.AsFloat()
	if err != nil {
		return 0, err
	}

	return int64(f), nil
}

// AsString returns the text payload.
// Returns [ErrTypeMismatch] if v is not a string.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("%w: have %s, want string", ErrTypeMismatch, v.kind)
	}

	return v.str, nil
}

// AsList returns the list payload.
// Returns [ErrTypeMismatch] if v is not a list.
func (v Value) AsList() ([]Value, error) {
	if v.kind != KindList {
		return nil, fmt.Errorf("%w: have %s, want list", ErrTypeMismatch, v.kind)
	}

	return v.list, nil
}

// AsMap returns the mapping payload.
// Returns [ErrTypeMismatch] if v is not a map.
func (v Value) AsMap() (map[string]Value, error) {
	if v.kind != KindMap {
		return nil, fmt.Errorf("%w: have %s, want map", ErrTypeMismatch, v.kind)
	}

	return v.m, nil
}

// StringForm returns the external string form of v, used to compare key
// row values. Numbers render without a trailing ".0" so Number(1) and a
// caller-supplied "1" compare equal.
func (v Value) StringForm() string {
	switch v.kind {
	case KindAbsent:
		return AbsentMarker
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindString:
		return v.str
	case KindUnreadable:
		return v.str
	case KindList, KindMap:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(data)
	default:
		return ""
	}
}

// Equal reports deep equality of two values. Used by go-cmp in tests.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindAbsent, KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.num == o.num
	case KindString, KindUnreadable:
		return v.str == o.str
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}

		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}

		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}

		for k, ve := range v.m {
			oe, ok := o.m[k]
			if !ok || !ve.Equal(oe) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// MarshalJSON serializes v to its canonical JSON form.
//
// The absent marker serializes as the literal sentinel string, so the wire
// format needs no special case for it. Unreadable values cannot be
// re-serialized; [EncodeCell] handles them by passing the raw token
// through.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindAbsent:
		return json.Marshal(AbsentMarker)
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.num)
	case KindString:
		return json.Marshal(v.str)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}

		return json.Marshal(v.list)
	case KindMap:
		if v.m == nil {
			return []byte("{}"), nil
		}

		return json.Marshal(v.m)
	case KindUnreadable:
		return nil, fmt.Errorf("%w: cannot serialize", ErrCellUnreadable)
	default:
		return nil, fmt.Errorf("unknown value kind %s", v.kind)
	}
}

// UnmarshalJSON deserializes any JSON document into the matching variant.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	parsed, err := fromAny(raw)
	if err != nil {
		return err
	}

	*v = parsed

	return nil
}

// FromGo converts a native Go value to a [Value].
//
// Handled directly: nil, bool, all int/uint/float widths, string, []any,
// map[string]any, Value itself. Anything else (structs, typed slices) is
// bridged through JSON serialization and fails if the value is not
// JSON-representable.
func FromGo(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return String(x), nil
	case int:
		return Number(float64(x)), nil
	case int8:
		return Number(float64(x)), nil
	case int16:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint:
		return Number(float64(x)), nil
	case uint8:
		return Number(float64(x)), nil
	case uint16:
		return Number(float64(x)), nil
	case uint32:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case float32:
		return Number(float64(x)), nil
	case float64:
		return Number(x), nil
	case []any:
		return fromAny(x)
	case map[string]any:
		return fromAny(x)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return Value{}, fmt.Errorf("converting %T: %w", v, err)
		}

		var out Value

		err = json.Unmarshal(data, &out)
		if err != nil {
			return Value{}, fmt.Errorf("converting %T: %w", v, err)
		}

		return out, nil
	}
}

// fromAny converts the output shapes of encoding/json (nil, bool, float64,
// string, []any, map[string]any) to a Value.
func fromAny(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case string:
		return String(x), nil
	case []any:
		elems := make([]Value, len(x))

		for i, e := range x {
			ev, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}

			elems[i] = ev
		}

		return List(elems...), nil
	case map[string]any:
		m := make(map[string]Value, len(x))

		for k, e := range x {
			ev, err := fromAny(e)
			if err != nil {
				return Value{}, err
			}

			m[k] = ev
		}

		return MapValue(m), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// GoString renders v for debugging output.
func (v Value) GoString() string {
	switch v.kind {
	case KindAbsent:
		return "danktable.Absent()"
	case KindNull:
		return "danktable.Null()"
	case KindBool:
		return fmt.Sprintf("danktable.Bool(%v)", v.b)
	case KindNumber:
		return fmt.Sprintf("danktable.Number(%v)", v.num)
	case KindString:
		return fmt.Sprintf("danktable.String(%q)", v.str)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.GoString()
		}

		return "danktable.List(" + strings.Join(parts, ", ") + ")"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, v.m[k].GoString())
		}

		return "danktable.MapValue{" + strings.Join(parts, ", ") + "}"
	case KindUnreadable:
		return fmt.Sprintf("danktable.unreadable(%q)", v.str)
	default:
		return fmt.Sprintf("danktable.Value{kind: %d}", v.kind)
	}
}
