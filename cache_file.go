package memoize

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"
)

var fileRecordMagic = []byte("MFR1")

// FileCache memoizes onto the filesystem, one file per key, so results
// survive process restarts. Writes go through a temp file and rename, so a
// concurrent reader sees either the old record or the new one, never a
// partial write.
type FileCache struct {
	dir   string
	ttl   time.Duration
	codec Codec
}

// NewFileCache creates a filesystem-backed cache rooted at dir.
//
// Example: memoization that survives restarts
//
//	c, err := memoize.NewFileCache(filepath.Join(os.TempDir(), "memo"),
//		memoize.WithCodec(memoize.JSON[string]()),
//	)
//	fmt.Println(err == nil, c.Driver()) // true file
func NewFileCache(dir string, opts ...CacheOption) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New("memoize: file cache requires a directory")
	}
	cfg := resolveCacheConfig(opts)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{
		dir:   dir,
		ttl:   cfg.TTL,
		codec: cfg.Codec,
	}, nil
}

func (c *FileCache) Driver() Driver {
	return DriverFile
}

func (c *FileCache) Lookup(_ context.Context, key string) (any, bool) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	expiresAt, body, err := decodeFileRecord(data)
	if err != nil {
		_ = os.Remove(path)
		return nil, false
	}
	if expiresAt > 0 && time.Now().UnixNano() > expiresAt {
		_ = os.Remove(path)
		return nil, false
	}
	value, err := c.codec.Decode(body)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *FileCache) Store(_ context.Context, key string, value any) bool {
	body, err := c.codec.Encode(value)
	if err != nil {
		return false
	}
	expiresAt := time.Now().Add(c.ttl).UnixNano()

	tmp, err := os.CreateTemp(c.dir, "memo-*")
	if err != nil {
		return false
	}
	tmpPath := tmp.Name()

	var header [12]byte
	copy(header[:4], fileRecordMagic)
	binary.BigEndian.PutUint64(header[4:], uint64(expiresAt))

	if _, err := tmp.Write(header[:]); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return false
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return false
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return false
	}
	return os.Rename(tmpPath, c.path(key)) == nil
}

// Flush removes every record under the cache directory.
func (c *FileCache) Flush() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		_ = os.Remove(filepath.Join(c.dir, entry.Name()))
	}
	return nil
}

func (c *FileCache) path(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".memo")
}

func decodeFileRecord(data []byte) (int64, []byte, error) {
	if len(data) < 12 || !bytes.Equal(data[:4], fileRecordMagic) {
		return 0, nil, errors.New("memoize: corrupt file record")
	}
	expiresAt := int64(binary.BigEndian.Uint64(data[4:12]))
	return expiresAt, data[12:], nil
}

var _ Cache = (*FileCache)(nil)
