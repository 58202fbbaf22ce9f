package pmidx

import "errors"

var (
	// ErrKeyEmpty is returned by Store.Insert when given a zero-length key.
	ErrKeyEmpty = errors.New("pmidx: key is empty")
	// ErrIndexUpdateFailed is returned when NumericIndex.Update's
	// compare-and-swap predicate does not match the stored entry.
	ErrIndexUpdateFailed = errors.New("pmidx: failed to update index")
	// ErrKeyNotFound names the absence of a published handle for a key.
	// Store.Get reports absence through its boolean result and does not
	// return this error.
	ErrKeyNotFound = errors.New("pmidx: key not found")
	// ErrEraseRange is returned by Store.Erase when the skip list rejects
	// the range (see skiplist.ErrInvalidRange).
	ErrEraseRange = errors.New("pmidx: invalid erase range")
	// ErrAlreadyLocked is returned by Open when another process already
	// holds the directory's exclusive lock.
	ErrAlreadyLocked = errors.New("pmidx: directory is locked by another process")
	// ErrClosed is returned by Store operations performed after Close.
	ErrClosed = errors.New("pmidx: store is closed")
)
