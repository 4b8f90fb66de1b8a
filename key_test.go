package memoize

import (
	"strings"
	"testing"
)

func TestKeyDeterministic(t *testing.T) {
	a, err := Key("user", 42, true)
	if err != nil {
		t.Fatalf("key derivation failed: %v", err)
	}
	b, err := Key("user", 42, true)
	if err != nil {
		t.Fatalf("key derivation failed: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical keys, got %q and %q", a, b)
	}
	if len(a) != 32 || strings.ToLower(a) != a {
		t.Fatalf("expected 32 lowercase hex characters, got %q", a)
	}
}

func TestKeySensitiveToValuesAndOrder(t *testing.T) {
	base, _ := Key("a", "b")
	swapped, _ := Key("b", "a")
	if base == swapped {
		t.Fatalf("expected argument order to matter")
	}
	changed, _ := Key("a", "c")
	if base == changed {
		t.Fatalf("expected argument values to matter")
	}
}

func TestKeyMapOrderIndependent(t *testing.T) {
	// json.Marshal sorts map keys, so logically equal maps must collide.
	a, err := Key(map[string]int{"x": 1, "y": 2, "z": 3})
	if err != nil {
		t.Fatalf("key derivation failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		b, err := Key(map[string]int{"z": 3, "y": 2, "x": 1})
		if err != nil {
			t.Fatalf("key derivation failed: %v", err)
		}
		if a != b {
			t.Fatalf("expected map keys to be canonicalized, got %q vs %q", a, b)
		}
	}
}

func TestKeyNumericTypesCollide(t *testing.T) {
	a, _ := Key(1)
	b, _ := Key(1.0)
	if a != b {
		t.Fatalf("expected int 1 and float64 1 to share a key")
	}
}

func TestKeyEmptyArguments(t *testing.T) {
	a, err := Key()
	if err != nil {
		t.Fatalf("key derivation failed: %v", err)
	}
	b, _ := Key()
	if a != b {
		t.Fatalf("expected stable key for empty arguments")
	}
	withArg, _ := Key(nil)
	if a == withArg {
		t.Fatalf("expected () and (nil) to differ")
	}
}

func TestKeyUnencodableArgument(t *testing.T) {
	if _, err := Key(make(chan int)); err == nil {
		t.Fatalf("expected error for channel argument")
	}
	if _, err := Key(func() {}); err == nil {
		t.Fatalf("expected error for function argument")
	}
}

func TestTypedKeySeparatesTypes(t *testing.T) {
	a, err := TypedKey(1)
	if err != nil {
		t.Fatalf("typed key derivation failed: %v", err)
	}
	b, err := TypedKey(1.0)
	if err != nil {
		t.Fatalf("typed key derivation failed: %v", err)
	}
	if a == b {
		t.Fatalf("expected int 1 and float64 1 to get distinct typed keys")
	}
}

func TestTypedKeyDeterministic(t *testing.T) {
	a, _ := TypedKey("x", 7)
	b, _ := TypedKey("x", 7)
	if a != b {
		t.Fatalf("expected identical typed keys, got %q and %q", a, b)
	}
}

func TestTypedKeyNilArgument(t *testing.T) {
	a, err := TypedKey(nil)
	if err != nil {
		t.Fatalf("typed key derivation failed: %v", err)
	}
	b, _ := TypedKey(nil)
	if a != b {
		t.Fatalf("expected stable typed key for nil")
	}
	var p *int
	c, err := TypedKey(p)
	if err != nil {
		t.Fatalf("typed key derivation failed: %v", err)
	}
	if a == c {
		t.Fatalf("expected untyped nil and (*int)(nil) to differ")
	}
}

func TestTypeName(t *testing.T) {
	cases := []struct {
		arg  any
		want string
	}{
		{nil, "nil"},
		{1, "int"},
		{1.0, "float64"},
		{"s", "string"},
		{[]byte("b"), "[]uint8"},
	}
	for _, tc := range cases {
		if got := typeName(tc.arg); got != tc.want {
			t.Fatalf("typeName(%v) = %q, want %q", tc.arg, got, tc.want)
		}
	}
}
