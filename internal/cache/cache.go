// Package cache stores translated chunks keyed by model, target language
// and source text, so that a retried or repeated document does not pay for
// the same chunk twice.
//
// Whether a cache is used at all is a Policy decision made by the caller.
// A Disabled policy carries no Store, so nothing can be read or written.
package cache

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("cache closed")

// Store is a key/value store for translated chunks.
type Store interface {
	// Get returns the cached value and true, or "" and false on a miss.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key, value string) error
	Close() error
}

// Policy tells the orchestrator whether chunk results may be cached.
// The zero value is Disabled.
type Policy struct {
	store Store
}

// Disabled returns a policy that never caches. Privacy mode uses it.
func Disabled() Policy {
	return Policy{}
}

// Enabled returns a policy backed by store. A nil store yields Disabled.
func Enabled(store Store) Policy {
	return Policy{store: store}
}

// Store returns the backing store and whether caching is enabled.
func (p Policy) Store() (Store, bool) {
	return p.store, p.store != nil
}

// IsEnabled reports whether the policy carries a store.
func (p Policy) IsEnabled() bool {
	return p.store != nil
}

// Key derives the cache key for a chunk. The three parts are length
// prefixed before hashing so that ("ab","c") and ("a","bc") differ.
func Key(model, target, text string) string {
	h, _ := blake2b.New256(nil) // nil key never errors
	for _, part := range []string{model, target, text} {
		var n [8]byte
		binary.LittleEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
