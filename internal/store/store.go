// Package store provides the scenario storage backends: an in-memory map,
// PostgreSQL via pgx and Redis via go-redis.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iwvelando/invoice-roi/internal/config"
	"github.com/iwvelando/invoice-roi/pkg/constants"
	"github.com/iwvelando/invoice-roi/pkg/scenario"
)

// Backend is a scenario.Store that holds resources to release.
type Backend interface {
	scenario.Store
	Close() error
}

// Option adjusts how a backend assigns identity to new records.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

// WithClock sets the clock used for created_at.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator sets the function that assigns record ids.
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

func buildOptions(opts []Option) options {
	o := options{
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open connects the backend selected by cfg.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger, opts ...Option) (Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Debug("opening scenario store",
		zap.String("op", "store.Open"),
		zap.String("backend", cfg.Backend),
	)

	switch cfg.Backend {
	case "", constants.StoreBackendMemory:
		return NewMemoryStore(cfg.Memory.MaxRecords, logger, opts...), nil
	case constants.StoreBackendPostgres:
		return NewPostgresStore(ctx, cfg.Postgres, logger)
	case constants.StoreBackendRedis:
		return NewRedisStore(ctx, cfg.Redis, logger, opts...)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}

func copyRecord(rec scenario.Record) scenario.Record {
	out := make(scenario.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
