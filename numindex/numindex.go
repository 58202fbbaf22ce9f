// Package numindex implements NumericIndex, a thin ordering/persistence
// shell in front of a delegate B-tree keyed by 32-bit unsigned integers.
package numindex

import (
	"encoding/binary"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/berylyvos/pmidx/flush"
	"github.com/berylyvos/pmidx/indexmeta"
)

// DefaultCacheSize is used when a non-positive size is passed to New.
const DefaultCacheSize = 1024

// BTree is the delegate numeric tree NumericIndex treats as an opaque
// collaborator. It is assumed safe for one writer (the index, or its
// AsyncIndexWriter) concurrent with arbitrary readers.
type BTree interface {
	Search(key uint32) (indexmeta.Handle, bool)
	Insert(key uint32, meta indexmeta.Handle)
	Update(key uint32, prevFileNumber uint32, meta indexmeta.Handle) bool
}

// NumericIndex orders and persists writes to a delegate BTree, fronted by
// a small LRU of recently looked-up keys.
type NumericIndex struct {
	tree    BTree
	flusher flush.Flusher
	cache   *lru.Cache[uint32, indexmeta.Handle]
}

// New constructs a NumericIndex over tree. size is the LRU's capacity in
// number of entries; a non-positive size falls back to DefaultCacheSize.
func New(tree BTree, flusher flush.Flusher, size int) *NumericIndex {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[uint32, indexmeta.Handle](size)
	if err != nil {
		// Only returned by golang-lru for a non-positive size, which
		// we've already ruled out above.
		panic(err)
	}
	return &NumericIndex{tree: tree, flusher: flusher, cache: cache}
}

// Get parses key as an ASCII decimal and returns the handle published
// for it, consulting the LRU before the delegate tree. A miss is never
// cached as absent, since AsyncIndexWriter may populate the delegate
// immediately after a miss is observed.
func (ni *NumericIndex) Get(key []byte) (indexmeta.Handle, bool) {
	parsed := ParseUint32(key)
	if v, ok := ni.cache.Get(parsed); ok {
		return v, true
	}
	v, ok := ni.tree.Search(parsed)
	if !ok {
		return indexmeta.Handle{}, false
	}
	ni.cache.Add(parsed, v)
	return v, true
}

// Insert flushes meta and then key before handing off to the delegate's
// Insert, since the delegate may publish by writing the key field and
// the metadata must already be durable by then. Any cached entry for key
// is invalidated so a later Get cannot shadow the fresher value.
func (ni *NumericIndex) Insert(key uint32, meta indexmeta.Handle) {
	ni.flusher.Flush(meta.Encode())

	var kb [4]byte
	binary.LittleEndian.PutUint32(kb[:], key)
	ni.flusher.Flush(kb[:])

	ni.tree.Insert(key, meta)
	ni.cache.Remove(key)
}

// Update forwards to the delegate's versioned Update and invalidates the
// key's cache entry on success.
func (ni *NumericIndex) Update(key uint32, prevFileNumber uint32, meta indexmeta.Handle) bool {
	ok := ni.tree.Update(key, prevFileNumber, meta)
	if ok {
		ni.cache.Remove(key)
	}
	return ok
}

// Range is not implemented; calling it is a no-op. Range scans on the
// numeric index are a declared non-goal.
func (ni *NumericIndex) Range(lo, hi []byte) {
}

// ParseUint32 consumes ASCII decimal digits starting at b's origin and
// returns the parsed value, stopping at the first non-digit byte or the
// end of the slice. Overflow wraps per ordinary unsigned arithmetic;
// behavior on a non-digit prefix (value 0) is intentionally undiagnosed,
// matching the source's fast_atoi.
func ParseUint32(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		v = v*10 + uint32(c-'0')
	}
	return v
}
