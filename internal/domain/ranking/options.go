// Package ranking implements the pairwise strength model.
package ranking

// Option applies a configuration option to the Model.
type Option func(*Model)

// WithDisplayScale sets the scale factor used by DisplayRating.
func WithDisplayScale(scale float64) Option {
	return func(m *Model) {
		if scale > 0 {
			m.displayScale = scale
		}
	}
}
