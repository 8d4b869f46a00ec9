package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/iwvelando/invoice-roi/internal/config"
	"github.com/iwvelando/invoice-roi/pkg/scenario"
)

// DefaultTable is the scenario table name used when none is configured.
const DefaultTable = "scenarios"

// PostgresStore persists records in a PostgreSQL table, such as the scenarios
// table of a Supabase project. Numeric columns are NUMERIC and come back as
// pgtype.Numeric, which the scenario serializer coerces.
type PostgresStore struct {
	pool   *pgxpool.Pool
	table  string
	logger *zap.Logger
}

// NewPostgresStore opens a connection pool for cfg.URL and, when
// cfg.EnsureSchema is set, creates the table if it is missing.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("postgres store requires a database url")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	s := &PostgresStore{
		pool:   pool,
		table:  pgx.Identifier{table}.Sanitize(),
		logger: logger,
	}

	if cfg.EnsureSchema {
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	logger.Info("connected to postgres scenario store",
		zap.String("op", "store.NewPostgresStore"),
		zap.String("table", table),
	)
	return s, nil
}

// EnsureSchema creates the scenario table when it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", s.table)
	b.WriteString("  id uuid PRIMARY KEY DEFAULT gen_random_uuid(),\n")
	b.WriteString("  scenario_name text NOT NULL,\n")
	b.WriteString("  user_email text NOT NULL,\n")
	b.WriteString("  created_at timestamptz NOT NULL DEFAULT now()")
	for _, column := range scenario.NumericColumns {
		nullability := " NOT NULL"
		if column == scenario.ColumnManualLaborCost || column == scenario.ColumnAutomatedCost {
			nullability = ""
		}
		fmt.Fprintf(&b, ",\n  %s numeric%s", column, nullability)
	}
	b.WriteString("\n)")

	if _, err := s.pool.Exec(ctx, b.String()); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec scenario.Record) (string, error) {
	columns := []string{scenario.ColumnName, scenario.ColumnEmail}
	columns = append(columns, scenario.NumericColumns...)

	var (
		names        []string
		placeholders []string
		args         []any
	)
	for _, column := range columns {
		v, ok := rec[column]
		if !ok {
			continue
		}
		args = append(args, v)
		names = append(names, column)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id::text",
		s.table, strings.Join(names, ", "), strings.Join(placeholders, ", "))

	var id string
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("failed to insert scenario: %w", err)
	}

	s.logger.Debug("inserted scenario record",
		zap.String("op", "store.PostgresStore.Insert"),
		zap.String("id", id),
	)
	return id, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]scenario.Record, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at DESC", s.selectColumns(), s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}

	records := make([]scenario.Record, 0, len(maps))
	for _, m := range maps {
		records = append(records, scenario.Record(m))
	}
	return records, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (scenario.Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, scenario.ErrNotFound
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1::uuid", s.selectColumns(), s.table)
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", id, err)
	}
	m, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scenario.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read scenario %s: %w", id, err)
	}
	return scenario.Record(m), nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return scenario.ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1::uuid", s.table), id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return scenario.ErrNotFound
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) selectColumns() string {
	columns := []string{
		"id::text AS id",
		scenario.ColumnName,
		scenario.ColumnEmail,
		scenario.ColumnCreatedAt,
	}
	columns = append(columns, scenario.NumericColumns...)
	return strings.Join(columns, ", ")
}
