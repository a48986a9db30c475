package service

import (
	"github.com/okian/pairwise/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets the list source.
func WithCatalog(c Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithPersistence sets where application state is loaded from and saved to.
func WithPersistence(p Persistence) Option {
	return func(s *Service) {
		if p != nil {
			s.persistence = p
		}
	}
}

// WithSampler selects the matchup strategy: auto, informative or uniform.
func WithSampler(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.samplerName = name
		}
	}
}

// WithIterations sets the fit budgets used on list selection and after
// each vote.
func WithIterations(initial, incremental int) Option {
	return func(s *Service) {
		if initial >= 0 {
			s.initialIterations = initial
		}
		if incremental >= 0 {
			s.incrementalIterations = incremental
		}
	}
}

// WithDisplayScale sets the display rating scale factor.
func WithDisplayScale(scale float64) Option {
	return func(s *Service) {
		if scale > 0 {
			s.displayScale = scale
		}
	}
}

// WithSaveQueueSize bounds pending state snapshots.
func WithSaveQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.saveQueueSize = size
		}
	}
}

// WithDedupeSize bounds remembered vote ids; zero or less is unbounded.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithSeed fixes the sampler's random source. Zero seeds from the clock.
func WithSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
