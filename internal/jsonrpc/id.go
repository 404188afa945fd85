package jsonrpc

import (
	"fmt"
	"strconv"
)

// IDKind tags the variant of an ID.
type IDKind uint8

const (
	IDAbsent IDKind = iota
	IDNumber
	IDString
)

// ID correlates a request with its response. The zero ID is absent, which
// marks a notification. IDs are comparable and can be used as map keys.
type ID struct {
	kind IDKind
	num  int64
	str  string
}

// NumberID returns an integer id.
func NumberID(n int64) ID { return ID{kind: IDNumber, num: n} }

// StringID returns a string id.
func StringID(s string) ID { return ID{kind: IDString, str: s} }

// Kind reports the variant of id.
func (id ID) Kind() IDKind { return id.kind }

// IsAbsent reports whether id carries no value.
func (id ID) IsAbsent() bool { return id.kind == IDAbsent }

// Value converts id to its wire form; an absent id becomes null.
func (id ID) Value() Value {
	switch id.kind {
	case IDNumber:
		return Int64(id.num)
	case IDString:
		return String(id.str)
	default:
		return Null()
	}
}

// String formats id for logs.
func (id ID) String() string {
	switch id.kind {
	case IDNumber:
		return strconv.FormatInt(id.num, 10)
	case IDString:
		return strconv.Quote(id.str)
	default:
		return "<none>"
	}
}

// IDFromValue extracts an id from its wire form. Null maps to the absent id.
func IDFromValue(v Value) (ID, error) {
	switch v.Kind() {
	case KindNull:
		return ID{}, nil
	case KindString:
		s, _ := v.AsString()
		return StringID(s), nil
	case KindNumber:
		n, err := v.AsInt64()
		if err != nil {
			return ID{}, fmt.Errorf("invalid id: %w", err)
		}
		return NumberID(n), nil
	default:
		return ID{}, fmt.Errorf("id must be a number or string, got %s", v.Kind())
	}
}
