package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/common"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
)

func TestPostgresImportRepository_InsertDispute(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	record := &dispute.Record{
		Processor:     "EFEVOO",
		Year:          "2025",
		RequestMonth:  "SEPTIEMBRE",
		SaleDate:      "2025-08-19",
		Amount:        1500,
		TransactionID: "TX-1",
		CaptureStatus: dispute.StatusInProcess,
	}

	args := make([]any, 22)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	args[0] = "EFEVOO"
	args[6] = "TX-1"
	args[7] = time.Date(2025, time.August, 19, 0, 0, 0, 0, time.UTC)
	args[8] = 1500.0

	mock.ExpectQuery(regexp.QuoteMeta(insertDisputeQuery)).
		WithArgs(args...).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	repo := NewPostgresImportRepository(mock)
	id, err := repo.InsertDispute(context.Background(), record)
	if err != nil {
		t.Fatalf("InsertDispute: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresImportRepository_UpdateCaptureStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(updateCaptureStatusQuery)).
		WithArgs("GANADA", "TX-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	repo := NewPostgresImportRepository(mock)
	n, err := repo.UpdateCaptureStatus(context.Background(), "TX-1", "GANADA")
	if err != nil {
		t.Fatalf("UpdateCaptureStatus: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresImportRepository_InsertRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	expected := `INSERT INTO "aclaraciones" ("procesador", "monto") VALUES ($1, $2), ($3, $4) ON CONFLICT DO NOTHING`
	mock.ExpectExec(regexp.QuoteMeta(expected)).
		WithArgs("BSD", 10.5, "EFEVOO", 20.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresImportRepository(mock)
	n, err := repo.InsertRows(context.Background(), "aclaraciones",
		[]string{"procesador", "monto"},
		[][]any{{"BSD", 10.5}, {"EFEVOO", 20.0}})
	if err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 inserted row, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresImportRepository_InsertRows_Invalid(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresImportRepository(mock)

	n, err := repo.InsertRows(context.Background(), "aclaraciones", []string{"procesador"}, nil)
	if err != nil || n != 0 {
		t.Fatalf("empty batch: n=%d err=%v", n, err)
	}

	_, err = repo.InsertRows(context.Background(), "aclaraciones", []string{"procesador", "monto"}, [][]any{{"BSD"}})
	if !errors.Is(err, common.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresImportRepository_CreateImportJob(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(createImportJobQuery)).
		WithArgs(pgxmock.AnyArg(), "aclaraciones", "marzo.xlsx", JobRunning, 0).
		WillReturnRows(pgxmock.NewRows([]string{"requested_at"}).AddRow(now))

	repo := NewPostgresImportRepository(mock)
	job := &ImportJob{TableName: "aclaraciones", FileName: "marzo.xlsx"}
	if err := repo.CreateImportJob(context.Background(), job); err != nil {
		t.Fatalf("CreateImportJob: %v", err)
	}
	if job.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}
	if job.Status != JobRunning || !job.RequestedAt.Equal(now) {
		t.Fatalf("unexpected job: %+v", job)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresImportRepository_GetImportJobByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	id := uuid.New()
	rows := pgxmock.NewRows([]string{
		"id", "table_name", "file_name", "status", "error_message", "rows_total",
		"rows_imported", "rows_skipped", "rows_failed", "requested_at", "finished_at",
	})
	mock.ExpectQuery(regexp.QuoteMeta(getImportJobQuery)).
		WithArgs(id).
		WillReturnRows(rows)

	repo := NewPostgresImportRepository(mock)
	_, err = repo.GetImportJobByID(context.Background(), id)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresImportRepository_FinishImportJob(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	job := &ImportJob{ID: uuid.New(), Status: JobSucceeded, RowsImported: 10, RowsSkipped: 2}
	mock.ExpectExec(regexp.QuoteMeta(finishImportJobQuery)).
		WithArgs(job.ID, JobSucceeded, 10, 2, 0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPostgresImportRepository(mock)
	if err := repo.FinishImportJob(context.Background(), job); err != nil {
		t.Fatalf("FinishImportJob: %v", err)
	}
	if job.FinishedAt == nil {
		t.Fatalf("expected finished_at to be set")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresImportRepository_InsertPaperwork(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(insertPaperworkQuery)).
		WithArgs("ANA LOPEZ", "POLANCO", "COL1", pgxmock.AnyArg(), "recibo", 2500.0,
			"PAGO PARCIAL", "Q22-1", "", "", "recibo.jpg").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	repo := NewPostgresImportRepository(mock)
	id, err := repo.InsertPaperwork(context.Background(), &PaperworkRecord{
		ClientName:  "ANA LOPEZ",
		Branch:      "POLANCO",
		BlockCode:   "COL1",
		Kind:        "recibo",
		Amount:      2500,
		PaymentType: "PAGO PARCIAL",
		Folio:       "Q22-1",
		SourceFile:  "recibo.jpg",
	})
	if err != nil {
		t.Fatalf("InsertPaperwork: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
