package querycache

import (
	"encoding/hex"

	"github.com/go-crypt/x/blake2b"

	"github.com/kailas-cloud/cie10rag/internal/domain/text"
)

// KeySize is the digest length in bytes.
const KeySize = 16

// Key identifies a cached response by normalized query and model.
type Key [KeySize]byte

// String returns the hex form of the key.
func (k Key) String() string { return hex.EncodeToString(k[:]) }

// KeyFor derives the cache key. Queries that differ only in case, punctuation
// or spacing share a key; different models never do.
func KeyFor(query, model string) Key {
	h, _ := blake2b.New(KeySize, nil) // only fails for out-of-range sizes or long keys
	_, _ = h.Write([]byte(text.Normalize(query)))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(model))

	var k Key
	copy(k[:], h.Sum(nil))
	return k
}
