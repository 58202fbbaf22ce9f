// Package flush provides the injectable cache-line-flush capability that
// every persistence step in the index layer reduces to.
//
// A real cache-line write-back instruction isn't reachable from pure Go
// without cgo, so Flusher is an interface rather than an ambient free
// function: production code wires in AtomicFenceFlusher, a portable stand-in
// built on a memory-ordering fence, and tests wire in a Recorder that
// remembers every flushed extent instead.
package flush

import "sync/atomic"

// Flusher ensures that stores issued by the caller to an extent, before
// Flush is called, are durable on the underlying medium once Flush
// returns. Flush is idempotent. Misalignment is accepted — callers pass
// whatever extent they consider "the published field".
type Flusher interface {
	Flush(extent []byte)
}

// fence is bumped on every Flush so the call carries real memory-ordering
// weight instead of being a pure no-op; its value is never read for
// business logic.
var fence uint64

// AtomicFenceFlusher is the default, portable Flusher. It issues a
// sequentially-consistent store via sync/atomic, which forces any stores
// program-ordered before it to be visible to any goroutine that later
// observes the fence — the closest portable equivalent of "cache-line
// write-back followed by the weakest store fence the platform requires"
// available from pure Go.
type AtomicFenceFlusher struct{}

// Flush implements Flusher.
func (AtomicFenceFlusher) Flush(extent []byte) {
	_ = extent
	atomic.AddUint64(&fence, 1)
}

// Default is the Flusher production callers should use absent a reason to
// substitute another one.
var Default Flusher = AtomicFenceFlusher{}

// Recorder is a test double that records every flushed extent instead of
// doing anything to it, so tests can assert "every level-0 pointer
// mutation was flushed before return" (SPEC_FULL §4.1).
type Recorder struct {
	extents [][]byte
}

// Flush implements Flusher.
func (r *Recorder) Flush(extent []byte) {
	cp := make([]byte, len(extent))
	copy(cp, extent)
	r.extents = append(r.extents, cp)
}

// Extents returns every extent flushed so far, in flush order.
func (r *Recorder) Extents() [][]byte {
	return r.extents
}

// Count returns the number of Flush calls observed so far.
func (r *Recorder) Count() int {
	return len(r.extents)
}

// Reset discards all recorded extents.
func (r *Recorder) Reset() {
	r.extents = nil
}
