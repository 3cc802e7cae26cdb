// Package service provides the import orchestration logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/assembler"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/repository"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/schema"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/sniffer"
	"github.com/FACorreiaa/backoffice-ingest/pkg/observability"
)

var ErrTableNotAllowed = errors.New("table is not open for imports")

// BaseAmounter computes the base-currency amount stored with a new dispute.
type BaseAmounter interface {
	BaseAmount(block string, amount float64) (float64, bool)
}

// Preview is the result of detecting pasted text without persisting it.
type Preview struct {
	Format   sniffer.Format   `json:"format"`
	Records  []dispute.Record `json:"records"`
	Warnings []RecordWarning  `json:"warnings"`
}

// RecordWarning lists the processor rules one record breaks. Rows are 1-indexed.
type RecordWarning struct {
	Row    int             `json:"row"`
	Issues []dispute.Issue `json:"issues"`
}

// RowError is a record that could not be written.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// IngestResult summarizes a dispute insert batch.
type IngestResult struct {
	Format    sniffer.Format  `json:"format,omitempty"`
	Attempted int             `json:"attempted"`
	Inserted  int             `json:"inserted"`
	Failed    int             `json:"failed"`
	IDs       []int64         `json:"ids"`
	Warnings  []RecordWarning `json:"warnings"`
	Errors    []RowError      `json:"errors"`
}

// ImportService orchestrates pasted text, spreadsheet and document ingestion
type ImportService struct {
	repo      repository.ImportRepository
	assembler *assembler.Assembler
	mapper    *schema.Mapper
	amounts   BaseAmounter
	progress  *ProgressTracker
	allowed   map[string]bool
	batchSize int
	logger    *slog.Logger
}

const importBatchSize = 500

// Option configures an ImportService.
type Option func(*ImportService)

// WithBaseAmounts fills the base-currency amount of inserted disputes.
func WithBaseAmounts(a BaseAmounter) Option {
	return func(s *ImportService) {
		s.amounts = a
	}
}

// WithAllowedTables restricts spreadsheet imports to tables.
func WithAllowedTables(tables ...string) Option {
	return func(s *ImportService) {
		s.allowed = make(map[string]bool, len(tables))
		for _, t := range tables {
			s.allowed[strings.TrimSpace(t)] = true
		}
	}
}

// WithProgressTracker replaces the in-memory progress tracker.
func WithProgressTracker(p *ProgressTracker) Option {
	return func(s *ImportService) {
		s.progress = p
	}
}

// WithBatchSize sets how many sheet rows are written per statement.
func WithBatchSize(n int) Option {
	return func(s *ImportService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewImportService creates a new import service
func NewImportService(repo repository.ImportRepository, asm *assembler.Assembler, mapper *schema.Mapper, logger *slog.Logger, opts ...Option) *ImportService {
	s := &ImportService{
		repo:      repo,
		assembler: asm,
		mapper:    mapper,
		progress:  NewProgressTracker(defaultProgressTTL),
		allowed:   map[string]bool{dispute.Table: true},
		batchSize: importBatchSize,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview detects and assembles pasted text without writing anything.
func (s *ImportService) Preview(text string) *Preview {
	format, records := s.assembler.Detect(text)
	return &Preview{
		Format:   format,
		Records:  records,
		Warnings: validateAll(records),
	}
}

// IngestText assembles pasted text and writes every resulting dispute. Text no
// detector recognizes yields an empty result with FormatUnknown.
func (s *ImportService) IngestText(ctx context.Context, text string) (*IngestResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, sniffer.ErrEmptyInput
	}

	format, records := s.assembler.Detect(text)
	res := s.insertRecords(ctx, "paste", records)
	res.Format = format
	return res, nil
}

// InsertRecords writes disputes that were reviewed or edited after a preview.
func (s *ImportService) InsertRecords(ctx context.Context, records []dispute.Record) (*IngestResult, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to insert: %w", sniffer.ErrEmptyInput)
	}
	return s.insertRecords(ctx, "records", records), nil
}

func (s *ImportService) insertRecords(ctx context.Context, source string, records []dispute.Record) *IngestResult {
	l := s.logger.With(slog.String("method", "insertRecords"), slog.String("source", source))

	res := &IngestResult{
		Attempted: len(records),
		IDs:       make([]int64, 0, len(records)),
		Warnings:  validateAll(records),
		Errors:    []RowError{},
	}

	for i := range records {
		r := records[i]
		if r.AmountInBaseCurrency == nil && s.amounts != nil {
			if base, ok := s.amounts.BaseAmount(r.BlockCode, r.Amount); ok {
				r.AmountInBaseCurrency = &base
			}
		}

		id, err := s.repo.InsertDispute(ctx, &r)
		if err != nil {
			l.WarnContext(ctx, "failed to insert dispute", slog.Int("row", i+1), slog.Any("error", err))
			res.Failed++
			res.Errors = append(res.Errors, RowError{Row: i + 1, Message: err.Error()})
			observability.RecordsPersisted.WithLabelValues(source, "failed").Inc()
			continue
		}
		res.Inserted++
		res.IDs = append(res.IDs, id)
		observability.RecordsPersisted.WithLabelValues(source, "inserted").Inc()
	}

	l.InfoContext(ctx, "disputes written",
		slog.Int("attempted", res.Attempted),
		slog.Int("inserted", res.Inserted),
		slog.Int("failed", res.Failed))
	return res
}

func validateAll(records []dispute.Record) []RecordWarning {
	warnings := []RecordWarning{}
	for i := range records {
		if issues := dispute.Validate(&records[i]); len(issues) > 0 {
			warnings = append(warnings, RecordWarning{Row: i + 1, Issues: issues})
		}
	}
	return warnings
}
