// Package queue holds state snapshots waiting to be persisted.
//
// Only the newest snapshot matters to the saver, so a full queue never
// rejects: the oldest pending snapshot is dropped to make room.
package queue

import (
	"context"
	"sync"

	"github.com/okian/pairwise/internal/domain/model"
	"github.com/okian/pairwise/pkg/metrics"
)

const defaultCapacity = 8

// Snapshot is the payload flowing through the queue.
type Snapshot = model.AppState

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a snapshot, superseding the oldest pending one when full.
	// It returns ErrClosed after Close.
	Enqueue(ctx context.Context, s Snapshot) error

	// Dequeue returns the channel snapshots are delivered on. It is closed
	// once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Snapshot

	Len(ctx context.Context) int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	snapshots chan Snapshot
	capacity  int

	mu     sync.Mutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.snapshots = make(chan Snapshot, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds s to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	for {
		select {
		case q.snapshots <- s:
			metrics.RecordQueueEnqueue()
			metrics.UpdateQueueSize(len(q.snapshots))
			return nil
		default:
		}
		// Full: drop the oldest. A consumer may win the race for it, in
		// which case the next send succeeds anyway.
		select {
		case <-q.snapshots:
			metrics.RecordQueueSuperseded()
		default:
		}
	}
}

// Dequeue returns the delivery channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Snapshot {
	return q.snapshots
}

// Len returns the number of pending snapshots.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.snapshots)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting snapshots. Pending ones are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.snapshots)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
