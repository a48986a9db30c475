package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/okian/pairwise/internal/adapters/http/api"
	"github.com/okian/pairwise/internal/adapters/http/swagger"
	"github.com/okian/pairwise/internal/adapters/repository"
	service "github.com/okian/pairwise/internal/app"
	"github.com/okian/pairwise/internal/config"
	"github.com/okian/pairwise/internal/domain/catalog"
	"github.com/okian/pairwise/pkg/logger"
	"github.com/okian/pairwise/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "pairwise exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run loads configuration, builds the service and serves HTTP until ctx is
// cancelled.
func run(ctx context.Context) error {
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	registerRuntimeCollectors(metrics.GetRegistry())

	svc, err := newService(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn(ctx, "failed to close service", logger.Error(err))
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	log.Info(ctx, "server stopped")
	return err
}

// newService wires the catalog and persistence gateway named by cfg into a
// service that is not yet started.
func newService(ctx context.Context, cfg *config.Config, log logger.Logger) (*service.Service, error) {
	codec, err := repository.CodecByName(cfg.StorageCodec)
	if err != nil {
		return nil, err
	}
	store, err := repository.Open(ctx, repository.StoreConfig{
		Backend:           cfg.StorageBackend,
		Dir:               cfg.StorageDir,
		RedisAddr:         cfg.RedisAddr,
		RedisPassword:     cfg.RedisPassword,
		RedisDB:           cfg.RedisDB,
		S3Bucket:          cfg.S3Bucket,
		S3Endpoint:        cfg.S3Endpoint,
		S3Region:          cfg.S3Region,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
		PostgresDSN:       cfg.PostgresDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageBackend, err)
	}
	gateway := repository.NewGateway(store,
		repository.WithKey(cfg.StorageKey),
		repository.WithCodec(codec),
		repository.WithLogger(log.Named("gateway")),
	)

	return service.New(
		service.WithLogger(log.Named("service")),
		service.WithCatalog(catalog.New(os.DirFS(cfg.CatalogDir))),
		service.WithPersistence(gateway),
		service.WithSampler(cfg.Sampler),
		service.WithIterations(cfg.InitialIterations, cfg.IncrementalIterations),
		service.WithDisplayScale(cfg.DisplayScale),
		service.WithSaveQueueSize(cfg.SaveQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithSeed(cfg.Seed),
	), nil
}

// newHandler registers the API and docs routes.
func newHandler(ctx context.Context, svc *service.Service, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithVoteRateLimit(cfg.VoteRateLimit, cfg.VoteRateBurst)).Register(ctx, mux)
	return mux
}

// registerRuntimeCollectors adds Go runtime and process metrics to reg.
// Collectors already present are left alone.
func registerRuntimeCollectors(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: "pairwise"}),
	} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				logger.Get().Warn(context.Background(), "register runtime collector", logger.Error(err))
			}
		}
	}
}
