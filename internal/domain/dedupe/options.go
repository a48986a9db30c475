package dedupe

// Option configures the in-memory Deduper.
type Option func(*window)

// WithMaxSize bounds how many keys are remembered. Zero or less is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(w *window) {
		w.maxSize = maxSize
	}
}
