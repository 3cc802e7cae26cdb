package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/common"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/normalizer"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

const (
	insertDisputeQuery = `
		INSERT INTO aclaraciones (
			procesador, año, mes_peticion, euroskin,
			id_del_comercio_afiliacion, nombre_del_comercio,
			id_de_transaccion, fecha_venta, monto, monto_mnx,
			num_de_tarjeta, autorizacion, cliente, vendedora,
			sucursal, fecha_contrato, paquete, bloque,
			fecha_de_peticion, fecha_de_respuesta, comentarios,
			captura_cc
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22
		)
		RETURNING id
	`

	updateCaptureStatusQuery = `
		UPDATE aclaraciones
		SET captura_cc = $1
		WHERE id_de_transaccion ILIKE '%' || $2 || '%'
		   OR autorizacion ILIKE '%' || $2 || '%'
	`

	createImportJobQuery = `
		INSERT INTO import_jobs (id, table_name, file_name, status, rows_total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING requested_at
	`

	getImportJobQuery = `
		SELECT id, table_name, file_name, status, error_message, rows_total,
		       rows_imported, rows_skipped, rows_failed, requested_at, finished_at
		FROM import_jobs WHERE id = $1
	`

	updateImportJobProgressQuery = `UPDATE import_jobs SET rows_imported = $2, rows_skipped = $3, rows_failed = $4 WHERE id = $1`

	finishImportJobQuery = `
		UPDATE import_jobs SET
			status = $2, rows_imported = $3, rows_skipped = $4, rows_failed = $5,
			error_message = $6, finished_at = NOW()
		WHERE id = $1
	`

	insertPaperworkQuery = `
		INSERT INTO papeleria (
			cliente, sucursal, bloque, fecha_contrato, tipo, monto,
			t_pago, folio, caja, usuario, archivo_original
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
)

// PostgresImportRepository implements ImportRepository using PostgreSQL
type PostgresImportRepository struct {
	pgpool PgxPool
}

// NewPostgresImportRepository creates a new PostgreSQL-backed import repository
func NewPostgresImportRepository(pgpool PgxPool) *PostgresImportRepository {
	return &PostgresImportRepository{pgpool: pgpool}
}

// InsertDispute writes one dispute row and returns its id
func (r *PostgresImportRepository) InsertDispute(ctx context.Context, record *dispute.Record) (int64, error) {
	var id int64
	err := r.pgpool.QueryRow(ctx, insertDisputeQuery,
		record.Processor,
		record.Year,
		record.RequestMonth,
		record.IsEuroskinFlag,
		record.MerchantAffiliationID,
		record.MerchantName,
		record.TransactionID,
		dateArg(record.SaleDate),
		record.Amount,
		record.AmountInBaseCurrency,
		record.CardNumber,
		record.AuthorizationCode,
		record.ClientName,
		record.SellerName,
		record.Branch,
		dateArg(record.ContractDate),
		record.Package,
		record.BlockCode,
		dateArg(record.RequestDate),
		dateArg(record.ResponseDate),
		record.Comments,
		record.CaptureStatus,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert dispute: %w", err)
	}
	return id, nil
}

// UpdateCaptureStatus sets the capture status of every dispute whose transaction id or
// authorization code contains id. It returns the number of rows changed.
func (r *PostgresImportRepository) UpdateCaptureStatus(ctx context.Context, id, status string) (int64, error) {
	tag, err := r.pgpool.Exec(ctx, updateCaptureStatusQuery, status, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update capture status: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertRows writes rows in a single multi-row statement, skipping rows that collide
// with an existing unique key. It returns the number of rows written.
func (r *PostgresImportRepository) InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("insert into %s: %w", table, common.ErrBadRequest)
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", pgx.Identifier{table}.Sanitize(), strings.Join(quoted, ", "))

	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("row %d has %d values for %d columns: %w", i, len(row), len(columns), common.ErrBadRequest)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", len(args)+j+1)
		}
		b.WriteByte(')')
		args = append(args, row...)
	}
	b.WriteString(" ON CONFLICT DO NOTHING")

	tag, err := r.pgpool.Exec(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert rows into %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// CreateImportJob creates a new import job
func (r *PostgresImportRepository) CreateImportJob(ctx context.Context, job *ImportJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobRunning
	}

	err := r.pgpool.QueryRow(ctx, createImportJobQuery,
		job.ID, job.TableName, job.FileName, job.Status, job.RowsTotal,
	).Scan(&job.RequestedAt)
	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

// GetImportJobByID retrieves an import job by ID
func (r *PostgresImportRepository) GetImportJobByID(ctx context.Context, id uuid.UUID) (*ImportJob, error) {
	rows, err := r.pgpool.Query(ctx, getImportJobQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}

	job, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[ImportJob])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import job: %w", err)
	}
	return job, nil
}

// UpdateImportJobProgress updates the row counts for an import job
func (r *PostgresImportRepository) UpdateImportJobProgress(ctx context.Context, id uuid.UUID, rowsImported, rowsSkipped, rowsFailed int) error {
	_, err := r.pgpool.Exec(ctx, updateImportJobProgressQuery, id, rowsImported, rowsSkipped, rowsFailed)
	if err != nil {
		return fmt.Errorf("failed to update import job progress: %w", err)
	}
	return nil
}

// FinishImportJob marks an import job as complete
func (r *PostgresImportRepository) FinishImportJob(ctx context.Context, job *ImportJob) error {
	_, err := r.pgpool.Exec(ctx, finishImportJobQuery,
		job.ID, job.Status, job.RowsImported, job.RowsSkipped, job.RowsFailed, job.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to finish import job: %w", err)
	}
	now := time.Now()
	job.FinishedAt = &now
	return nil
}

// InsertPaperwork writes an OCR-captured receipt or contract and returns its id
func (r *PostgresImportRepository) InsertPaperwork(ctx context.Context, record *PaperworkRecord) (int64, error) {
	var id int64
	err := r.pgpool.QueryRow(ctx, insertPaperworkQuery,
		record.ClientName,
		record.Branch,
		record.BlockCode,
		dateArg(record.ContractDate),
		record.Kind,
		record.Amount,
		record.PaymentType,
		record.Folio,
		record.CashDesk,
		record.User,
		record.SourceFile,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert paperwork: %w", err)
	}
	return id, nil
}

// dateArg turns a canonical date into a DATE parameter; anything else is NULL.
func dateArg(s string) any {
	if !normalizer.IsCanonicalDate(s) {
		return nil
	}
	t, err := time.Parse(normalizer.CanonicalDateLayout, s)
	if err != nil {
		return nil
	}
	return t
}
