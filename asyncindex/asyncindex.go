// Package asyncindex decouples index publication from the caller's
// write path: callers hand off key/metadata pairs and a single
// background goroutine drains them into the underlying NumericIndex.
package asyncindex

import (
	"sync"

	"github.com/bwmarrin/snowflake"

	"github.com/berylyvos/pmidx/indexmeta"
	"github.com/berylyvos/pmidx/numindex"
)

// Item is one pending publication, as exposed to callers that bulk-graft
// a batch of work (e.g. during recovery) via AddQueue. A zero
// PrevFileNumber means "insert"; any other value means "update,
// contingent on the tree still holding that file number".
type Item struct {
	SubmissionID   int64
	Key            uint32
	PrevFileNumber uint32
	Meta           indexmeta.Handle
}

type workItem = Item

// AsyncIndexWriter drains a FIFO queue of pending inserts into a
// NumericIndex on a single background goroutine. The goroutine holds the
// writer's lock for a whole drain, so a submission made while a drain is
// in progress waits for that drain to finish.
type AsyncIndexWriter struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []workItem
	closing bool
	started bool
	wg      sync.WaitGroup

	index *numindex.NumericIndex
	node  *snowflake.Node

	free_ bool // reserved, unused by this writer
}

// New constructs a writer over index. node generates diagnostic
// submission IDs for queued work items; pass nil to disable (IDs are
// left zero).
func New(index *numindex.NumericIndex, node *snowflake.Node) *AsyncIndexWriter {
	w := &AsyncIndexWriter{index: index, node: node, free_: true}
	w.cond = sync.NewCond(&w.mu)
	return w
}

// AsyncInsert enqueues a single key/metadata pair for publication and
// starts the background worker on first use. A zero prevFileNumber
// means the background writer will Insert; any other value means it
// will Update, contingent on the tree still holding that file number.
func (w *AsyncIndexWriter) AsyncInsert(key uint32, prevFileNumber uint32, meta indexmeta.Handle) error {
	w.mu.Lock()
	if w.closing {
		w.mu.Unlock()
		return ErrClosed
	}
	if !w.started {
		w.started = true
		w.wg.Add(1)
		go w.run()
	}
	if len(w.queue) == 0 {
		w.cond.Signal()
	}
	w.queue = append(w.queue, w.newItem(key, prevFileNumber, meta))
	w.mu.Unlock()
	return nil
}

// AddQueue grafts a whole pre-built batch of pending publications onto
// the writer in one step, taking ownership of items. It requires the
// writer's own queue to be empty, mirroring the source's
// assert(queue_.size()==0); queue_.swap(queue) and returning
// ErrQueueNotEmpty rather than asserting when that precondition is
// violated.
func (w *AsyncIndexWriter) AddQueue(items []Item) error {
	w.mu.Lock()
	if w.closing {
		w.mu.Unlock()
		return ErrClosed
	}
	if len(w.queue) != 0 {
		w.mu.Unlock()
		return ErrQueueNotEmpty
	}
	if w.node != nil {
		for i := range items {
			items[i].SubmissionID = w.node.Generate().Int64()
		}
	}
	w.queue = items
	if !w.started {
		w.started = true
		w.wg.Add(1)
		go w.run()
	}
	w.mu.Unlock()
	w.cond.Signal()
	return nil
}

func (w *AsyncIndexWriter) newItem(key uint32, prevFileNumber uint32, meta indexmeta.Handle) Item {
	var id int64
	if w.node != nil {
		id = w.node.Generate().Int64()
	}
	return Item{SubmissionID: id, Key: key, PrevFileNumber: prevFileNumber, Meta: meta}
}

// run is the sole background consumer. Once woken, it holds the lock
// while it pops and publishes every queued item in FIFO order, and
// releases it only when the queue is empty. Each item with a zero
// PrevFileNumber is Inserted; anything else is Updated against that
// prior file number.
func (w *AsyncIndexWriter) run() {
	defer w.wg.Done()
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closing {
			w.cond.Wait()
		}
		if len(w.queue) == 0 && w.closing {
			w.mu.Unlock()
			return
		}
		for len(w.queue) > 0 {
			item := w.queue[0]
			w.queue = w.queue[1:]
			if item.PrevFileNumber == 0 {
				w.index.Insert(item.Key, item.Meta)
			} else {
				w.index.Update(item.Key, item.PrevFileNumber, item.Meta)
			}
		}
		w.mu.Unlock()
	}
}

// Close signals the background worker to drain any remaining queued
// items and exit, then waits for it to finish. Close is idempotent.
// After Close returns, AsyncInsert and AddQueue return ErrClosed.
func (w *AsyncIndexWriter) Close() error {
	w.mu.Lock()
	if w.closing {
		w.mu.Unlock()
		return nil
	}
	w.closing = true
	started := w.started
	w.mu.Unlock()
	w.cond.Broadcast()

	if started {
		w.wg.Wait()
	}
	return nil
}

// PendingLen reports the number of items currently queued and not yet
// handed to the index. Intended for tests and diagnostics only.
func (w *AsyncIndexWriter) PendingLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}
