package conversion

import (
	"context"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
)

func TestPostgresRepository_EntriesByYear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta(entriesByYearQuery)).
		WithArgs("2025").
		WillReturnRows(pgxmock.NewRows([]string{"bloque", "monto", "record_key"}).
			AddRow("COL1", 1000.0, "TX-1").
			AddRow("CHI", 50.5, "sin_id"))

	repo := NewPostgresRepository(mock)
	entries, err := repo.EntriesByYear(context.Background(), "2025")
	if err != nil {
		t.Fatalf("EntriesByYear: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0] != (Entry{BlockCode: "COL1", Amount: 1000, RecordKey: "TX-1"}) {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepository_UpdateAmountInBaseCurrency(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta(updateAmountQuery)).
		WithArgs(4.57, "TX-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(updateAmountQuery)).
		WithArgs(1.0, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresRepository(mock)

	matched, err := repo.UpdateAmountInBaseCurrency(context.Background(), "TX-1", 4.57)
	if err != nil || !matched {
		t.Fatalf("expected match, got matched=%v err=%v", matched, err)
	}

	matched, err = repo.UpdateAmountInBaseCurrency(context.Background(), "missing", 1.0)
	if err != nil || matched {
		t.Fatalf("expected no match, got matched=%v err=%v", matched, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
