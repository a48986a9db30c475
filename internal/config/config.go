// Package config defines service configuration and its defaults.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// CatalogDir holds index.json and the lists/ directory.
	CatalogDir string `koanf:"catalog_dir" validate:"required"`

	// Storage selects where the application state is persisted.
	StorageBackend string `koanf:"storage_backend" validate:"oneof=memory file redis s3 postgres"`
	StorageKey     string `koanf:"storage_key" validate:"required"`
	StorageDir     string `koanf:"storage_dir" validate:"required_if=StorageBackend file"`
	StorageCodec   string `koanf:"storage_codec" validate:"oneof=json cbor"`

	RedisAddr     string `koanf:"redis_addr" validate:"required_if=StorageBackend redis"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db" validate:"gte=0"`

	S3Bucket          string `koanf:"s3_bucket" validate:"required_if=StorageBackend s3"`
	S3Endpoint        string `koanf:"s3_endpoint" validate:"omitempty,url"`
	S3Region          string `koanf:"s3_region"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`

	PostgresDSN string `koanf:"postgres_dsn" validate:"required_if=StorageBackend postgres"`

	// Sampler picks the matchup strategy: auto, informative or uniform.
	Sampler string `koanf:"sampler" validate:"oneof=auto informative uniform"`

	// InitialIterations is the fit budget when a list is selected;
	// IncrementalIterations the budget after each vote.
	InitialIterations     int `koanf:"initial_iterations" validate:"gte=0"`
	IncrementalIterations int `koanf:"incremental_iterations" validate:"gte=0"`

	// DisplayScale multiplies ln(ability*count) in display ratings.
	DisplayScale float64 `koanf:"display_scale" validate:"gt=0"`

	// SaveQueueSize bounds pending state snapshots.
	SaveQueueSize int `koanf:"save_queue_size" validate:"gte=1"`

	// DedupeSize bounds remembered vote ids; zero or less is unbounded.
	DedupeSize int `koanf:"dedupe_size"`

	// VoteRateLimit is votes per second per list; zero disables limiting.
	VoteRateLimit float64 `koanf:"vote_rate_limit" validate:"gte=0"`
	VoteRateBurst int     `koanf:"vote_rate_burst" validate:"gte=1"`

	// Seed fixes the sampler's random source; zero seeds from the clock.
	Seed int64 `koanf:"seed"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		CatalogDir:            "data",
		StorageBackend:        "file",
		StorageKey:            "ranking_lists_state",
		StorageDir:            "state",
		StorageCodec:          "json",
		S3Region:              "auto",
		Sampler:               "auto",
		InitialIterations:     100,
		IncrementalIterations: 10,
		DisplayScale:          100,
		SaveQueueSize:         8,
		DedupeSize:            10_000,
		VoteRateLimit:         20,
		VoteRateBurst:         40,
	}
}
