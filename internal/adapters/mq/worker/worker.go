// Package worker runs the background flusher that persists state snapshots.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/pairwise/internal/adapters/mq/queue"
	"github.com/okian/pairwise/pkg/logger"
)

// Saver persists a snapshot. Failures are the saver's to log.
type Saver interface {
	Save(ctx context.Context, state queue.Snapshot)
}

// Queue defines how the flusher receives snapshots.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Snapshot
}

// Flusher drains the snapshot queue into a Saver, one save at a time.
type Flusher struct {
	queue Queue
	saver Saver
	name  string

	done chan struct{}

	logger logger.Logger
}

// NewFlusher creates a flusher with configuration options.
func NewFlusher(q Queue, saver Saver, opts ...Option) *Flusher {
	f := &Flusher{
		queue:  q,
		saver:  saver,
		name:   "flusher",
		done:   make(chan struct{}),
		logger: logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.name != "flusher" {
		f.logger = f.logger.Named(f.name)
	}
	return f
}

// Run saves snapshots until the queue is closed and drained or ctx is
// cancelled. When several snapshots are pending only the newest is saved.
func (f *Flusher) Run(ctx context.Context) {
	defer close(f.done)

	snapshots := f.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-snapshots:
			if !ok {
				return
			}
			s, open := latest(snapshots, s)
			f.save(ctx, s)
			if !open {
				return
			}
		}
	}
}

// Done is closed when Run returns.
func (f *Flusher) Done() <-chan struct{} {
	return f.done
}

// Shutdown waits for Run to finish draining. The queue must be closed first.
func (f *Flusher) Shutdown(ctx context.Context) error {
	select {
	case <-f.done:
		return nil
	case <-ctx.Done():
		f.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (f *Flusher) save(ctx context.Context, s queue.Snapshot) {
	start := time.Now()
	f.saver.Save(ctx, s)
	f.logger.Debug(ctx, "snapshot flushed",
		logger.Int("lists", len(s.Lists)),
		logger.Duration("took", time.Since(start)),
	)
}

// latest consumes every snapshot already pending on ch and returns the
// newest, plus whether ch is still open.
func latest(ch <-chan queue.Snapshot, s queue.Snapshot) (queue.Snapshot, bool) {
	for {
		select {
		case next, ok := <-ch:
			if !ok {
				return s, false
			}
			s = next
		default:
			return s, true
		}
	}
}
