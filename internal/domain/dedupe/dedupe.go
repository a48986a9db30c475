// Package dedupe tracks vote ids so a retried submission is applied at most
// once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 10000

// Deduper records seen vote keys.
type Deduper interface {
	// SeenAndRecord reports whether key was already recorded and records it
	// if not. The check and the insert are atomic.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so a vote that failed after being recorded can
	// be retried.
	Unrecord(ctx context.Context, key string)

	// Forget drops every key with the given scope, e.g. when a list is reset.
	Forget(ctx context.Context, scope string)

	Size() int64
}

// Key builds the dedupe key of a vote within a list.
func Key(scope, voteID string) string {
	return scope + "\x00" + voteID
}

type entry struct {
	scope string
	key   string
}

// window keeps the most recent keys in insertion order. When maxSize is
// reached the oldest key is evicted first.
type window struct {
	mu      sync.Mutex
	maxSize int
	order   *list.List
	index   map[string]*list.Element
}

// NewInMemoryDeduper returns a bounded in-memory Deduper. A max size of zero
// or less keeps every key.
func NewInMemoryDeduper(opts ...Option) Deduper {
	w := &window{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(w)
	}
	w.order = list.New()
	w.index = make(map[string]*list.Element)
	return w
}

func (w *window) SeenAndRecord(_ context.Context, key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.index[key]; ok {
		return true
	}
	if w.maxSize > 0 && w.order.Len() >= w.maxSize {
		if oldest := w.order.Front(); oldest != nil {
			w.remove(oldest)
		}
	}
	w.index[key] = w.order.PushBack(entry{scope: scopeOf(key), key: key})
	return false
}

func (w *window) Unrecord(_ context.Context, key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if el, ok := w.index[key]; ok {
		w.remove(el)
	}
}

func (w *window) Forget(_ context.Context, scope string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for el := w.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(entry).scope == scope {
			w.remove(el)
		}
		el = next
	}
}

func (w *window) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int64(w.order.Len())
}

// remove must be called with mu held.
func (w *window) remove(el *list.Element) {
	delete(w.index, el.Value.(entry).key)
	w.order.Remove(el)
}

func scopeOf(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			return key[:i]
		}
	}
	return ""
}
