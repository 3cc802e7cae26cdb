package conversion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/backoffice-ingest/pkg/observability"
)

var (
	ErrUnknownBlock    = errors.New("unknown block code")
	ErrUnknownCurrency = errors.New("unknown currency")
)

// Entry is one persisted dispute awaiting conversion.
type Entry struct {
	BlockCode string  `db:"bloque"`
	Amount    float64 `db:"monto"`
	RecordKey string  `db:"record_key"`
}

// Repository reads dispute amounts and writes converted amounts back.
type Repository interface {
	EntriesByYear(ctx context.Context, year string) ([]Entry, error)
	// UpdateAmountInBaseCurrency reports whether any row matched key.
	UpdateAmountInBaseCurrency(ctx context.Context, key string, amount float64) (bool, error)
}

// BlockSummary aggregates the successfully converted entries of one block.
type BlockSummary struct {
	Country        string          `json:"country"`
	Currency       string          `json:"currency"`
	Rate           decimal.Decimal `json:"rate"`
	Count          int             `json:"count"`
	AmountTotal    decimal.Decimal `json:"amountTotal"`
	ConvertedTotal decimal.Decimal `json:"convertedTotal"`
}

// Result summarizes a conversion batch.
type Result struct {
	Success        bool                     `json:"success"`
	Year           string                   `json:"year"`
	Message        string                   `json:"message"`
	RecordsFound   int                      `json:"recordsFound"`
	RecordsUpdated int                      `json:"recordsUpdated"`
	NotMatched     int                      `json:"notMatched"`
	Skipped        int                      `json:"skipped"`
	Failed         int                      `json:"failed"`
	Blocks         map[string]*BlockSummary `json:"blocks"`
}

// Service runs conversion batches.
type Service struct {
	repo   Repository
	tables *Tables
	logger *slog.Logger
}

// NewService creates a conversion service over tables.
func NewService(repo Repository, tables *Tables, logger *slog.Logger) *Service {
	return &Service{repo: repo, tables: tables, logger: logger}
}

// Tables returns the lookup tables the service converts with.
func (s *Service) Tables() *Tables {
	return s.tables
}

// ConvertByYear converts every dispute of year that has an amount and a block code.
// An empty year or a year without candidates is reported in the result, not as an
// error. Individual write failures are counted and never abort the batch.
func (s *Service) ConvertByYear(ctx context.Context, year string) (*Result, error) {
	ctx, span := otel.Tracer("conversion").Start(ctx, "ConvertByYear")
	defer span.End()

	year = strings.TrimSpace(year)
	l := s.logger.With(slog.String("method", "ConvertByYear"), slog.String("year", year))

	if year == "" {
		return &Result{Message: "a year is required"}, nil
	}
	span.SetAttributes(attribute.String("conversion.year", year))

	entries, err := s.repo.EntriesByYear(ctx, year)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, fmt.Errorf("read disputes for %s: %w", year, err)
	}
	if len(entries) == 0 {
		l.InfoContext(ctx, "no disputes to convert")
		return &Result{Year: year, Message: fmt.Sprintf("no disputes found for year %s", year)}, nil
	}

	res := &Result{
		Success:      true,
		Year:         year,
		RecordsFound: len(entries),
		Blocks:       make(map[string]*BlockSummary),
	}

	for _, e := range entries {
		converted, region, rate, err := s.tables.Convert(e.BlockCode, e.Amount)
		if err != nil {
			l.WarnContext(ctx, "skipping entry", slog.String("key", e.RecordKey), slog.Any("error", err))
			res.Skipped++
			observability.ConversionEntries.WithLabelValues("skipped").Inc()
			continue
		}

		matched, err := s.repo.UpdateAmountInBaseCurrency(ctx, e.RecordKey, converted.InexactFloat64())
		if err != nil {
			l.ErrorContext(ctx, "failed to write converted amount", slog.String("key", e.RecordKey), slog.Any("error", err))
			res.Failed++
			observability.ConversionEntries.WithLabelValues("failed").Inc()
			continue
		}
		if !matched {
			res.NotMatched++
			observability.ConversionEntries.WithLabelValues("not_matched").Inc()
			continue
		}

		res.RecordsUpdated++
		observability.ConversionEntries.WithLabelValues("updated").Inc()

		block := normalizeCode(e.BlockCode)
		summary, ok := res.Blocks[block]
		if !ok {
			summary = &BlockSummary{Country: region.Country, Currency: region.Currency, Rate: rate}
			res.Blocks[block] = summary
		}
		summary.Count++
		summary.AmountTotal = summary.AmountTotal.Add(decimal.NewFromFloat(e.Amount))
		summary.ConvertedTotal = summary.ConvertedTotal.Add(converted)
	}

	res.Message = fmt.Sprintf("conversion completed: %d records updated", res.RecordsUpdated)
	span.SetAttributes(
		attribute.Int("conversion.found", res.RecordsFound),
		attribute.Int("conversion.updated", res.RecordsUpdated),
	)
	l.InfoContext(ctx, "conversion finished",
		slog.Int("found", res.RecordsFound),
		slog.Int("updated", res.RecordsUpdated),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed))

	return res, nil
}
