package repository

import (
	"context"
	"errors"
	"time"

	"github.com/okian/pairwise/internal/domain/model"
	"github.com/okian/pairwise/pkg/logger"
	"github.com/okian/pairwise/pkg/metrics"
)

// Gateway loads and saves the whole application state under one key.
// Neither direction surfaces errors: a failed load yields the empty state
// and a failed save is logged.
type Gateway struct {
	store BlobStore
	key   string
	codec Codec
	log   logger.Logger
}

// NewGateway wraps store.
func NewGateway(store BlobStore, opts ...Option) *Gateway {
	g := &Gateway{
		store: store,
		key:   DefaultKey,
		codec: JSONCodec{},
		log:   logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Load returns the stored state, or the empty state when nothing usable is
// stored.
func (g *Gateway) Load(ctx context.Context) model.AppState {
	start := time.Now()
	raw, err := g.store.Get(ctx, g.key)
	metrics.RecordPersistenceLatency("get", msSince(start))
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.RecordPersistenceLoad("missing")
		g.log.Info(ctx, "no stored state, starting empty", logger.String("key", g.key))
		return model.NewAppState()
	case err != nil:
		metrics.RecordPersistenceLoad("read_error")
		metrics.RecordErrorByComponent("repository", "read")
		g.log.Warn(ctx, "failed to read stored state, starting empty",
			logger.String("key", g.key), logger.Error(err))
		return model.NewAppState()
	}

	state, err := g.codec.Decode(raw)
	if err != nil {
		metrics.RecordPersistenceLoad("decode_error")
		metrics.RecordErrorByComponent("repository", "decode")
		g.log.Warn(ctx, "failed to decode stored state, starting empty",
			logger.String("key", g.key), logger.String("codec", g.codec.Name()), logger.Error(err))
		return model.NewAppState()
	}
	if state.Lists == nil {
		state.Lists = make(map[string]model.ListState)
	}
	metrics.RecordPersistenceLoad("ok")
	g.log.Debug(ctx, "loaded state", logger.String("key", g.key), logger.Int("lists", len(state.Lists)))
	return state
}

// Save encodes and writes state. Failures are logged and counted.
func (g *Gateway) Save(ctx context.Context, state model.AppState) {
	raw, err := g.codec.Encode(state)
	if err != nil {
		metrics.RecordPersistenceSave("error")
		metrics.RecordErrorByComponent("repository", "encode")
		g.log.Error(ctx, "failed to encode state", logger.String("key", g.key), logger.Error(err))
		return
	}

	start := time.Now()
	err = g.store.Set(ctx, g.key, raw)
	metrics.RecordPersistenceLatency("set", msSince(start))
	if err != nil {
		metrics.RecordPersistenceSave("error")
		metrics.RecordErrorByComponent("repository", "write")
		g.log.Error(ctx, "failed to save state", logger.String("key", g.key), logger.Error(err))
		return
	}
	metrics.RecordPersistenceSave("ok")
	metrics.UpdateSnapshotBytes(len(raw))
}

// Close releases the underlying store.
func (g *Gateway) Close() error {
	return g.store.Close()
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
