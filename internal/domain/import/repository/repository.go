// Package repository provides data access for dispute ingestion.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
)

// Import job statuses.
const (
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
)

// ImportJob tracks the status of a spreadsheet import
type ImportJob struct {
	ID           uuid.UUID  `db:"id"`
	TableName    string     `db:"table_name"`
	FileName     string     `db:"file_name"`
	Status       string     `db:"status"`
	ErrorMessage *string    `db:"error_message"`
	RowsTotal    int        `db:"rows_total"`
	RowsImported int        `db:"rows_imported"`
	RowsSkipped  int        `db:"rows_skipped"`
	RowsFailed   int        `db:"rows_failed"`
	RequestedAt  time.Time  `db:"requested_at"`
	FinishedAt   *time.Time `db:"finished_at"`
}

// PaperworkRecord is a receipt or contract captured through OCR
type PaperworkRecord struct {
	ClientName   string
	Branch       string
	BlockCode    string
	ContractDate string
	Kind         string // "recibo", "contrato"
	Amount       float64
	PaymentType  string
	Folio        string
	CashDesk     string
	User         string
	SourceFile   string
}

// ImportRepository defines data access operations for ingestion
type ImportRepository interface {
	// Disputes
	InsertDispute(ctx context.Context, record *dispute.Record) (int64, error)
	UpdateCaptureStatus(ctx context.Context, id, status string) (int64, error)

	// Sheet rows
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Import Jobs
	CreateImportJob(ctx context.Context, job *ImportJob) error
	GetImportJobByID(ctx context.Context, id uuid.UUID) (*ImportJob, error)
	UpdateImportJobProgress(ctx context.Context, id uuid.UUID, rowsImported, rowsSkipped, rowsFailed int) error
	FinishImportJob(ctx context.Context, job *ImportJob) error

	// Paperwork
	InsertPaperwork(ctx context.Context, record *PaperworkRecord) (int64, error)
}
