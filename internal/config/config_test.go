package config_test

import (
	"errors"
	"testing"

	"github.com/okian/pairwise/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.StorageBackend, convey.ShouldEqual, "file")
			convey.So(cfg.StorageKey, convey.ShouldEqual, "ranking_lists_state")
			convey.So(cfg.Sampler, convey.ShouldEqual, "auto")
			convey.So(cfg.InitialIterations, convey.ShouldBeGreaterThan, cfg.IncrementalIterations)
			convey.So(cfg.DisplayScale, convey.ShouldEqual, 100)
		})

		convey.Convey("And the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("An unknown backend is invalid", func() {
			cfg.StorageBackend = "etcd"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("The redis backend needs an address", func() {
			cfg.StorageBackend = "redis"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			cfg.RedisAddr = "localhost:6379"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("The s3 backend needs a bucket", func() {
			cfg.StorageBackend = "s3"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			cfg.S3Bucket = "rankings"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("The postgres backend needs a dsn", func() {
			cfg.StorageBackend = "postgres"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			cfg.PostgresDSN = "postgres://localhost/pairwise?sslmode=disable"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Negative iteration budgets are invalid", func() {
			cfg.IncrementalIterations = -1
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("An unknown sampler is invalid", func() {
			cfg.Sampler = "random"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("A malformed s3 endpoint is invalid", func() {
			cfg.S3Endpoint = "not a url"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}
