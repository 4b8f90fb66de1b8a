package memoize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
)

// KeyFunc derives a deterministic cache key from the call arguments.
// The owning instance is never part of the key.
//
// Contract:
//   - Determinism: equal argument lists must produce equal keys, regardless
//     of map iteration order.
//   - Implementations must be safe for concurrent use.
type KeyFunc func(args ...any) (string, error)

// Key is the default deriver: the canonical JSON rendering of the argument
// list, hashed with SHA-256. Key equality follows JSON value equality, so
// numerically equal arguments of different Go types share an entry
// (int 1 and float64 1 both render as the JSON number 1).
func Key(args ...any) (string, error) {
	return hashKey(args)
}

// TypedKey folds each argument's runtime type into the key in addition to
// its value, so equal-but-differently-typed arguments never share an entry.
func TypedKey(args ...any) (string, error) {
	typed := make([]any, 0, len(args)*2)
	for _, arg := range args {
		typed = append(typed, typeName(arg), arg)
	}
	return hashKey(typed)
}

func typeName(arg any) string {
	if arg == nil {
		return "nil"
	}
	return reflect.TypeOf(arg).String()
}

// hashKey relies on encoding/json for canonical form: map keys are sorted
// and numeric types collapse to their JSON rendering. Unencodable arguments
// (channels, functions, NaN) surface as a key derivation error.
func hashKey(args []any) (string, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("memoize: derive key: %w", err)
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:16]), nil
}
