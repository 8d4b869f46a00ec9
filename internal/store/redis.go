package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iwvelando/invoice-roi/internal/config"
	"github.com/iwvelando/invoice-roi/pkg/constants"
	"github.com/iwvelando/invoice-roi/pkg/scenario"
)

// RedisStore keeps each record in a hash at <prefix>:scenario:<id> and
// orders them with a sorted set at <prefix>:scenarios scored by an insert
// sequence taken from <prefix>:scenarios:seq. Values are stored as text and
// coerced back by the scenario serializer.
type RedisStore struct {
	client *redis.Client
	prefix string
	opts   options
	logger *zap.Logger
}

// NewRedisStore connects to cfg.Addr and verifies the connection.
func NewRedisStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger, opts ...Option) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreWithClient(client, cfg.Prefix, logger, opts...), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, logger *zap.Logger, opts ...Option) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = constants.DefaultRedisPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
		opts:   buildOptions(opts),
		logger: logger,
	}
}

func (s *RedisStore) recordKey(id string) string {
	return s.prefix + ":scenario:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":scenarios"
}

func (s *RedisStore) sequenceKey() string {
	return s.indexKey() + ":seq"
}

func (s *RedisStore) Insert(ctx context.Context, rec scenario.Record) (string, error) {
	id := s.opts.newID()
	createdAt := s.opts.now()

	fields := make(map[string]any, len(rec)+2)
	for k, v := range rec {
		text, err := redisValue(v)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", k, err)
		}
		fields[k] = text
	}
	fields[scenario.ColumnID] = id
	fields[scenario.ColumnCreatedAt] = createdAt.Format(time.RFC3339Nano)

	// The sequence orders inserts that share a created_at.
	seq, err := s.client.Incr(ctx, s.sequenceKey()).Result()
	if err != nil {
		return "", fmt.Errorf("failed to insert scenario: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.recordKey(id), fields)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(seq), Member: id})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert scenario: %w", err)
	}

	s.logger.Debug("inserted scenario record",
		zap.String("op", "store.RedisStore.Insert"),
		zap.String("id", id),
	)
	return id, nil
}

func (s *RedisStore) List(ctx context.Context) ([]scenario.Record, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	if len(ids) == 0 {
		return []scenario.Record{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.recordKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}

	records := make([]scenario.Record, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			s.logger.Warn("scenario index references a missing record",
				zap.String("op", "store.RedisStore.List"),
				zap.String("id", ids[i]),
			)
			continue
		}
		records = append(records, toRecord(fields))
	}
	return records, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (scenario.Record, error) {
	fields, err := s.client.HGetAll(ctx, s.recordKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, scenario.ErrNotFound
	}
	return toRecord(fields), nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.recordKey(id))
		pipe.ZRem(ctx, s.indexKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete scenario %s: %w", id, err)
	}
	if del.Val() == 0 {
		return scenario.ErrNotFound
	}
	return nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case nil:
		return "", fmt.Errorf("null value")
	}
	f, err := scenario.ToFloat(v)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func toRecord(fields map[string]string) scenario.Record {
	rec := make(scenario.Record, len(fields))
	for k, v := range fields {
		rec[k] = v
	}
	return rec
}
