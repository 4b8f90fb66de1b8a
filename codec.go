package memoize

import "encoding/json"

// Codec converts memoized values to and from bytes for backends that store
// opaque payloads (redis, sql, dynamodb, nats, file).
type Codec struct {
	Encode func(value any) ([]byte, error)
	Decode func(body []byte) (any, error)
}

// JSON returns a codec that round-trips values through T. Use it when a
// byte-oriented backend caches results of a method returning T, so that a
// decoded hit carries the same dynamic type the method produces.
//
// Example: typed codec
//
//	codec := memoize.JSON[int]()
//	body, _ := codec.Encode(42)
//	v, _ := codec.Decode(body)
//	fmt.Printf("%T %v\n", v, v) // int 42
func JSON[T any]() Codec {
	return Codec{
		Encode: func(value any) ([]byte, error) {
			return json.Marshal(value)
		},
		Decode: func(body []byte) (any, error) {
			var out T
			if err := json.Unmarshal(body, &out); err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}

// RawJSON is the fallback codec when none is configured. Decoded hits come
// back as generic JSON values (map[string]any, float64, string), which only
// satisfies methods that return those types; prefer JSON[T] for typed results.
func RawJSON() Codec {
	return Codec{
		Encode: func(value any) ([]byte, error) {
			return json.Marshal(value)
		},
		Decode: func(body []byte) (any, error) {
			var out any
			if err := json.Unmarshal(body, &out); err != nil {
				return nil, err
			}
			return out, nil
		},
	}
}
