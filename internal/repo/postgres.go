package repo

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/model"
)

//go:embed schema.sql
var schemaSQL string

var copyColumns = []string{"position", "hash", "name", "deadline", "description"}

// PostgresBackend хранит снимок коллекции в таблице tasks.
// Каждое сохранение целиком заменяет содержимое таблицы в одной транзакции.
type PostgresBackend struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresBackend(pool *pgxpool.Pool, logger *zap.Logger) *PostgresBackend { // Конструктор
	return &PostgresBackend{
		pool:   pool,
		logger: logger,
	}
}

// EnsureSchema creates the tasks table when it does not exist yet.
func (r *PostgresBackend) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schemaSQL)
	return r.mapError(err)
}

func (r *PostgresBackend) Load(ctx context.Context) ([]model.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT hash, name, deadline, description
		FROM tasks
		ORDER BY position
	`)
	if err != nil {
		return nil, r.mapError(err)
	}
	defer rows.Close()

	records := make([]model.Record, 0)
	for rows.Next() {
		var rec model.Record
		if err := rows.Scan(&rec.Hash, &rec.Name, &rec.Deadline, &rec.Description); err != nil {
			return nil, fmt.Errorf("scan task row: %w", r.mapError(err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapError(err)
	}

	r.logger.Debug("tasks table loaded", zap.Int("records", len(records)))
	return records, nil
}

func (r *PostgresBackend) Save(ctx context.Context, records []model.Record) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return r.mapError(err)
	}
	defer tx.Rollback(ctx) // После Commit откат ничего не делает

	if _, err := tx.Exec(ctx, "DELETE FROM tasks"); err != nil {
		return r.mapError(err)
	}

	rows := make([][]any, 0, len(records))
	for i, rec := range records {
		rows = append(rows, []any{i, rec.Hash, rec.Name, rec.Deadline, rec.Description})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"tasks"}, copyColumns, pgx.CopyFromRows(rows)); err != nil {
		return r.mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return r.mapError(err)
	}
	r.logger.Debug("tasks table saved", zap.Int("records", len(records)))
	return nil
}

func (r *PostgresBackend) Remove(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM tasks"); err != nil {
		return r.mapError(err)
	}
	r.logger.Debug("tasks table cleared")
	return nil
}

func (r *PostgresBackend) mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "42P01" { // undefined_table
			return fmt.Errorf("%w: %w", ErrSchemaMissing, err)
		}
	}
	return err
}
