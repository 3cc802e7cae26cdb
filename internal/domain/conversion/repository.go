package conversion

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ PgxPool = (*pgxpool.Pool)(nil)

var (
	entriesByYearQuery = `
		SELECT bloque, monto::float8 AS monto, ` + dispute.NaturalKeySQL + ` AS record_key
		FROM aclaraciones
		WHERE "año"::text = $1
		  AND monto IS NOT NULL
		  AND bloque IS NOT NULL
	`

	updateAmountQuery = `
		UPDATE aclaraciones
		SET monto_mnx = $1
		WHERE ` + dispute.NaturalKeySQL + ` = $2
	`
)

// PostgresRepository implements Repository over the aclaraciones table.
type PostgresRepository struct {
	pgpool PgxPool
}

func NewPostgresRepository(pgpool PgxPool) *PostgresRepository {
	return &PostgresRepository{pgpool: pgpool}
}

func (r *PostgresRepository) EntriesByYear(ctx context.Context, year string) ([]Entry, error) {
	rows, err := r.pgpool.Query(ctx, entriesByYearQuery, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query disputes by year: %w", err)
	}

	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[Entry])
	if err != nil {
		return nil, fmt.Errorf("failed to scan disputes: %w", err)
	}
	return entries, nil
}

func (r *PostgresRepository) UpdateAmountInBaseCurrency(ctx context.Context, key string, amount float64) (bool, error) {
	tag, err := r.pgpool.Exec(ctx, updateAmountQuery, amount, key)
	if err != nil {
		return false, fmt.Errorf("failed to update converted amount: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
