package reactive

import (
	"fmt"
	"reflect"
)

// KeyKind tags a Key variant.
type KeyKind uint8

const (
	// KeyNone selects no scope; any existing one is disposed.
	KeyNone KeyKind = iota
	// KeyToggle selects a scope unconditionally, with no key value.
	KeyToggle
	// KeyPrimitive selects a scope by a comparable value.
	KeyPrimitive
	// KeyComposed selects a scope by a comparable value plus an auxiliary
	// payload that is excluded from change detection.
	KeyComposed
)

func (k KeyKind) String() string {
	switch k {
	case KeyNone:
		return "none"
	case KeyToggle:
		return "toggle"
	case KeyPrimitive:
		return "primitive"
	case KeyComposed:
		return "composed"
	default:
		return "unknown"
	}
}

// Key drives a keyed scope. Construct one with NoKey, Toggle, Primitive or
// Composed; the zero value is NoKey.
type Key struct {
	Kind    KeyKind
	Value   any
	Payload any
}

// NoKey returns the key that selects no scope.
func NoKey() Key {
	return Key{}
}

// Toggle returns the key that selects a scope unconditionally.
func Toggle() Key {
	return Key{Kind: KeyToggle}
}

// Primitive returns a key selecting a scope by v. v must be a comparable
// non-nil value; anything else is a programmer error and panics.
func Primitive(v any) Key {
	mustComparable(v)
	return Key{Kind: KeyPrimitive, Value: v}
}

// Composed returns a key selecting a scope by v, carrying payload alongside.
// Payload changes alone never re-run setup.
func Composed(v, payload any) Key {
	mustComparable(v)
	return Key{Kind: KeyComposed, Value: v, Payload: payload}
}

// Matches reports whether two keys select the same scope instance. Only the
// kind and the key value participate; payloads are ignored.
func (k Key) Matches(o Key) bool {
	if k.Kind != o.Kind {
		return false
	}
	switch k.Kind {
	case KeyPrimitive, KeyComposed:
		return k.Value == o.Value
	default:
		return true
	}
}

func mustComparable(v any) {
	if v == nil || !reflect.TypeOf(v).Comparable() {
		panic(fmt.Sprintf("reactive: key value %#v must be a comparable non-nil value", v))
	}
}
