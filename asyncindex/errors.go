package asyncindex

import "errors"

var (
	// ErrClosed is returned by AsyncInsert and AddQueue once Close has
	// been called.
	ErrClosed = errors.New("asyncindex: writer is closed")
	// ErrQueueNotEmpty is returned by AddQueue when the writer's queue
	// already holds undrained items; AddQueue grafts a whole batch in
	// one step and requires the queue be empty first.
	ErrQueueNotEmpty = errors.New("asyncindex: queue is not empty")
)
