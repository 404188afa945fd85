package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"fortio.org/safecast"
)

// Kind is the variant tag of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the JSON name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is a JSON-RPC payload: null, bool, number, string, array or object.
// The zero Value is null. Objects keep member order as built or parsed.
// Numbers keep their literal text so integers wider than a float64 mantissa
// survive a round trip.
type Value struct {
	kind    Kind
	b       bool
	n       float64
	lit     string
	s       string
	items   []Value
	members []Member
}

// Member is one key/value pair of an object Value.
type Member struct {
	Key   string
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int wraps an int.
func Int(n int) Value { return Int64(int64(n)) }

// Int64 wraps an int64 exactly.
func Int64(n int64) Value {
	return Value{kind: KindNumber, n: float64(n), lit: strconv.FormatInt(n, 10)}
}

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Array builds an array value. A nil slice yields an empty array, not null.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, items: items}
}

// Object builds an object value from members. Duplicate keys keep the last value.
func Object(members ...Member) Value {
	var b objectBuilder
	for _, m := range members {
		b.set(m.Key, m.Value)
	}
	return b.value()
}

// objectBuilder appends members in order and only searches on a repeated key.
type objectBuilder struct {
	members []Member
	index   map[string]int
}

func (b *objectBuilder) set(key string, value Value) {
	if i, ok := b.index[key]; ok {
		b.members[i].Value = value
		return
	}
	if b.index == nil {
		b.index = make(map[string]int)
	}
	b.index[key] = len(b.members)
	b.members = append(b.members, Member{Key: key, Value: value})
}

func (b *objectBuilder) value() Value {
	if b.members == nil {
		b.members = []Member{}
	}
	return Value{kind: KindObject, members: b.members}
}

// Field is shorthand for a Member literal.
func Field(key string, value Value) Member {
	return Member{Key: key, Value: value}
}

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsNumber returns the numeric payload.
func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// AsString returns the string payload.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsInt returns the numeric payload as an int. Fractional or out of range
// numbers are rejected.
func (v Value) AsInt() (int, error) {
	n, err := v.AsInt64()
	if err != nil {
		return 0, err
	}
	out, err := safecast.Convert[int](n)
	if err != nil {
		return 0, fmt.Errorf("number %d out of range: %w", n, err)
	}
	return out, nil
}

// AsInt64 returns the numeric payload as an int64. Integer literals are
// read from their text, so no precision is lost above 2^53.
func (v Value) AsInt64() (int64, error) {
	if v.kind != KindNumber {
		return 0, fmt.Errorf("expected number, got %s", v.kind)
	}
	if n, ok := v.exactInt(); ok {
		return n, nil
	}
	n, err := safecast.Convert[int64](v.n)
	if err != nil {
		return 0, fmt.Errorf("number %s is not an integer: %w", v.numberText(), err)
	}
	return n, nil
}

func (v Value) exactInt() (int64, bool) {
	if v.lit == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(v.lit, 10, 64)
	return n, err == nil
}

func (v Value) numberText() string {
	if v.lit != "" {
		return v.lit
	}
	return strconv.FormatFloat(v.n, 'g', -1, 64)
}

// Len returns the number of array items or object members.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.members)
	default:
		return 0
	}
}

// Items returns the elements of an array value, or nil.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.items
}

// Members returns the members of an object value in order, or nil.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.members
}

// Get looks up an object member.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// With returns a copy of the object v with key set to value. Non-object
// receivers are treated as an empty object.
func (v Value) With(key string, value Value) Value {
	out := Value{kind: KindObject, members: make([]Member, 0, len(v.members)+1)}
	if v.kind == KindObject {
		out.members = append(out.members, v.members...)
	}
	for i := range out.members {
		if out.members[i].Key == key {
			out.members[i].Value = value
			return out
		}
	}
	out.members = append(out.members, Member{Key: key, Value: value})
	return out
}

// Equal reports deep equality. Object member order is not significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		a, aok := v.exactInt()
		b, bok := o.exactInt()
		if aok && bok {
			return a == b
		}
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindArray:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.members) != len(o.members) {
			return false
		}
		for _, m := range v.members {
			other, ok := o.Get(m.Key)
			if !ok || !m.Value.Equal(other) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders v as compact JSON. Unencodable numbers render as null.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return "null"
	}
	return string(data)
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if v.lit != "" {
			buf.WriteString(v.lit)
			return nil
		}
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return fmt.Errorf("unsupported number %v", v.n)
		}
		data, err := json.Marshal(v.n)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindString:
		data, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindArray:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind %d", v.kind)
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Parse decodes exactly one JSON document into a Value.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("unexpected data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, io.ErrUnexpectedEOF
		}
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Value{kind: KindNumber, n: n, lit: t.String()}, nil
	case json.Delim:
		switch t {
		case '[':
			items := []Value{}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Array(items...), nil
		case '{':
			var obj objectBuilder
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("invalid object key %v", keyTok)
				}
				member, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.set(key, member)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return obj.value(), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected token %v", tok)
}
