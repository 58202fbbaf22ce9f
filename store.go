// Package pmidx assembles the NVM-backed index layer: a persistent
// skip list for the log's primary ordered index, a numeric index for
// secondary point lookups, and a background writer that publishes into
// the numeric index off the caller's path. It is the collaborator a host storage engine embeds; file I/O,
// compaction, and the log format itself are its caller's concern.
package pmidx

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/gofrs/flock"

	"github.com/berylyvos/pmidx/asyncindex"
	"github.com/berylyvos/pmidx/flush"
	"github.com/berylyvos/pmidx/indexmeta"
	"github.com/berylyvos/pmidx/numindex"
	"github.com/berylyvos/pmidx/skiplist"
)

const lockFileName = "pmidx.lock"

// Store owns one directory's worth of index state: a NumericIndex
// fronted by its background writer, and a PersistentSkipList. Both
// indexes share the process's Flusher.
type Store struct {
	mu sync.RWMutex

	options Options
	dirLock *flock.Flock

	numIndex *numindex.NumericIndex
	writer   *asyncindex.AsyncIndexWriter
	skl      *skiplist.PersistentSkipList

	flusher flush.Flusher
	closed  bool
}

// Open acquires an exclusive lock on options.DirPath (creating it if
// necessary) and constructs a Store over it. Open returns
// ErrAlreadyLocked if another process already holds the directory.
func Open(options Options) (*Store, error) {
	if err := os.MkdirAll(options.DirPath, 0755); err != nil {
		return nil, err
	}

	lk := flock.New(filepath.Join(options.DirPath, lockFileName))
	locked, err := lk.TryLock()
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrAlreadyLocked
	}

	flusher := flush.Default
	numIndex := numindex.New(numindex.NewDelegate(), flusher, options.LRUSize)

	node, err := snowflake.NewNode(0)
	if err != nil {
		_ = lk.Unlock()
		return nil, err
	}
	writer := asyncindex.New(numIndex, node)

	skl := skiplist.New(skiplist.ByteCompare, flusher)

	return &Store{
		options:  options,
		dirLock:  lk,
		numIndex: numIndex,
		writer:   writer,
		skl:      skl,
		flusher:  flusher,
	}, nil
}

// Close drains and stops the background writer and releases the
// directory lock. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.writer.Close(); err != nil {
		return err
	}
	return s.dirLock.Unlock()
}

// AsyncInsert queues key/meta for publication into the numeric index
// via the background writer. A zero prevFileNumber publishes as an
// insert; any other value publishes as a compare-and-swap update
// against that prior file number.
func (s *Store) AsyncInsert(key uint32, prevFileNumber uint32, meta indexmeta.Handle) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return s.writer.AsyncInsert(key, prevFileNumber, meta)
}

// Get looks up an ASCII-decimal numeric key's published handle.
func (s *Store) Get(key []byte) (indexmeta.Handle, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return indexmeta.Handle{}, false, ErrClosed
	}
	v, ok := s.numIndex.Get(key)
	return v, ok, nil
}

// Update performs a synchronous compare-and-swap publication on the
// numeric index, bypassing the background writer.
func (s *Store) Update(key uint32, prevFileNumber uint32, meta indexmeta.Handle) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if !s.numIndex.Update(key, prevFileNumber, meta) {
		return ErrIndexUpdateFailed
	}
	return nil
}

// Insert inserts key/value into the persistent skip list, returning the
// new node's reference.
func (s *Store) Insert(key, value []byte) (skiplist.Ref, error) {
	if len(key) == 0 {
		return skiplist.Ref(0), ErrKeyEmpty
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return skiplist.Ref(0), ErrClosed
	}
	return s.skl.Insert(key, value), nil
}

// Find performs a point lookup against the persistent skip list.
func (s *Store) Find(key []byte) (skiplist.Ref, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return skiplist.Ref(0), false, ErrClosed
	}
	ref, ok := s.skl.Find(key)
	return ref, ok, nil
}

// Erase removes the inclusive range [first, last] from the persistent
// skip list. It returns ErrEraseRange if the skip list rejects the range
// (see skiplist.ErrInvalidRange).
func (s *Store) Erase(first, last skiplist.Ref) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if err := s.skl.Erase(first, last); err != nil {
		return ErrEraseRange
	}
	return nil
}

// SkipList exposes the Store's underlying PersistentSkipList for
// callers that need direct iteration or erase access.
func (s *Store) SkipList() *skiplist.PersistentSkipList {
	return s.skl
}

// NumericIndex exposes the Store's underlying NumericIndex for callers
// that need direct access beyond Get/Update.
func (s *Store) NumericIndex() *numindex.NumericIndex {
	return s.numIndex
}
