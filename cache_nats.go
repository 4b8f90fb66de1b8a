package memoize

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const natsEnvelopeMarker = "memo-v1"

// NATSKeyValue captures the subset of nats.KeyValue used by the adapter.
type NATSKeyValue interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
	Purge(key string, opts ...nats.DeleteOpt) error
}

// NATSCache memoizes into a JetStream key-value bucket. Entries are wrapped
// in an envelope carrying their expiry, checked on lookup, since KV buckets
// only expire whole buckets on their own.
type NATSCache struct {
	kv     NATSKeyValue
	ttl    time.Duration
	prefix string
	codec  Codec
}

type natsEnvelope struct {
	Marker    string `json:"m"`
	Value     []byte `json:"v"`
	ExpiresAt int64  `json:"ea"`
}

// NewNATSCache creates a cache over an existing key-value bucket.
func NewNATSCache(kv NATSKeyValue, opts ...CacheOption) *NATSCache {
	cfg := resolveCacheConfig(opts)
	return &NATSCache{
		kv:     kv,
		ttl:    cfg.TTL,
		prefix: cfg.Prefix,
		codec:  cfg.Codec,
	}
}

func (c *NATSCache) Driver() Driver { return DriverNATS }

func (c *NATSCache) Lookup(_ context.Context, key string) (any, bool) {
	if c.kv == nil {
		return nil, false
	}
	cacheKey := c.cacheKey(key)
	entry, err := c.kv.Get(cacheKey)
	if err != nil {
		return nil, false
	}
	if entry.Operation() == nats.KeyValueDelete || entry.Operation() == nats.KeyValuePurge {
		return nil, false
	}
	envelope, err := decodeNATSEnvelope(entry.Value())
	if err != nil {
		return nil, false
	}
	if envelope.ExpiresAt > 0 && time.Now().UnixMilli() > envelope.ExpiresAt {
		_ = c.kv.Purge(cacheKey)
		return nil, false
	}
	value, err := c.codec.Decode(envelope.Value)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *NATSCache) Store(_ context.Context, key string, value any) bool {
	if c.kv == nil {
		return false
	}
	body, err := c.codec.Encode(value)
	if err != nil {
		return false
	}
	envelope, err := encodeNATSEnvelope(body, c.ttl)
	if err != nil {
		return false
	}
	_, err = c.kv.Put(c.cacheKey(key), envelope)
	return err == nil
}

func (c *NATSCache) cacheKey(key string) string {
	return "p." + encodeNATSKeyPart(c.prefix) + ".k." + encodeNATSKeyPart(key)
}

func encodeNATSEnvelope(value []byte, ttl time.Duration) ([]byte, error) {
	envelope := natsEnvelope{
		Marker:    natsEnvelopeMarker,
		Value:     value,
		ExpiresAt: time.Now().Add(ttl).UnixMilli(),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("memoize: marshal nats envelope: %w", err)
	}
	return body, nil
}

func decodeNATSEnvelope(body []byte) (natsEnvelope, error) {
	var envelope natsEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return natsEnvelope{}, fmt.Errorf("memoize: decode nats envelope: %w", err)
	}
	if envelope.Marker != natsEnvelopeMarker {
		return natsEnvelope{}, errors.New("memoize: foreign nats entry")
	}
	return envelope, nil
}

// NATS KV keys reject most punctuation, so both prefix and key travel
// base64url-encoded.
func encodeNATSKeyPart(part string) string {
	if part == "" {
		return "_"
	}
	return base64.RawURLEncoding.EncodeToString([]byte(part))
}

var _ Cache = (*NATSCache)(nil)
