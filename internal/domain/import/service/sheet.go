package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/common"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/repository"
	"github.com/FACorreiaa/backoffice-ingest/pkg/observability"
)

// ImportResult contains the result of a spreadsheet import
type ImportResult struct {
	JobID        uuid.UUID `json:"jobId"`
	Table        string    `json:"table"`
	Columns      []string  `json:"columns"`
	RowsTotal    int       `json:"rowsTotal"`
	RowsImported int       `json:"rowsImported"`
	RowsSkipped  int       `json:"rowsSkipped"`
	RowsFailed   int       `json:"rowsFailed"`
	Errors       []string  `json:"errors"`
}

type coerceJob struct {
	lineNum int
	cells   []string
}

type coerceResult struct {
	lineNum int
	values  []any
	empty   bool
}

// sheetColumn is a header cell that resolved to a column name.
type sheetColumn struct {
	index int
	name  string
}

// ImportSheet loads the first worksheet of an xlsx workbook into table. The first row
// holds the headers; rows whose cells all coerce to nil are skipped and rows that
// collide with existing keys are skipped by the database.
func (s *ImportService) ImportSheet(ctx context.Context, table, fileName string, data io.Reader) (*ImportResult, error) {
	table = strings.TrimSpace(table)
	if !s.allowed[table] {
		return nil, fmt.Errorf("%w: %s", ErrTableNotAllowed, table)
	}

	l := s.logger.With(slog.String("method", "ImportSheet"), slog.String("table", table), slog.String("file", fileName))

	f, err := excelize.OpenReader(data)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w: %v", common.ErrBadRequest, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			l.Warn("failed to close workbook", slog.Any("error", err))
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %w", common.ErrBadRequest)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %q has no data rows: %w", sheets[0], common.ErrBadRequest)
	}

	columns := s.resolveColumns(table, rows[0])
	if len(columns) == 0 {
		return nil, fmt.Errorf("sheet %q has no usable headers: %w", sheets[0], common.ErrBadRequest)
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
	}

	job := &repository.ImportJob{
		TableName: table,
		FileName:  fileName,
		Status:    repository.JobRunning,
		RowsTotal: len(rows) - 1,
	}
	if err := s.repo.CreateImportJob(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create import job: %w", err)
	}

	publish := func(message string) {
		s.progress.Publish(Progress{
			JobID:        job.ID,
			Table:        table,
			Status:       job.Status,
			RowsTotal:    job.RowsTotal,
			RowsImported: job.RowsImported,
			RowsSkipped:  job.RowsSkipped,
			RowsFailed:   job.RowsFailed,
			Message:      message,
		})
	}
	publish("")

	coerceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := s.coerceRowsStream(coerceCtx, table, columns, rows[1:])

	insertErrors := []string{}
	batch := make([][]any, 0, s.batchSize)

	flushBatch := func() {
		if len(batch) == 0 {
			return
		}
		inserted, err := s.repo.InsertRows(ctx, table, names, batch)
		if err != nil {
			l.WarnContext(ctx, "failed to insert batch", slog.Int("rows", len(batch)), slog.Any("error", err))
			job.RowsFailed += len(batch)
			insertErrors = append(insertErrors, err.Error())
			observability.SheetRows.WithLabelValues(table, "failed").Add(float64(len(batch)))
		} else {
			job.RowsImported += int(inserted)
			duplicates := len(batch) - int(inserted)
			job.RowsSkipped += duplicates
			observability.SheetRows.WithLabelValues(table, "imported").Add(float64(inserted))
			observability.SheetRows.WithLabelValues(table, "duplicate").Add(float64(duplicates))
		}
		batch = batch[:0]

		if err := s.repo.UpdateImportJobProgress(ctx, job.ID, job.RowsImported, job.RowsSkipped, job.RowsFailed); err != nil {
			l.WarnContext(ctx, "failed to update import job progress", slog.Any("error", err))
		}
		publish("")
	}

	for result := range results {
		if result.empty {
			job.RowsSkipped++
			observability.SheetRows.WithLabelValues(table, "empty").Inc()
			continue
		}
		batch = append(batch, result.values)
		if len(batch) >= s.batchSize {
			flushBatch()
		}
	}
	flushBatch()

	if err := ctx.Err(); err != nil {
		job.Status = repository.JobFailed
		msg := err.Error()
		job.ErrorMessage = &msg
	} else if job.RowsFailed > 0 && job.RowsImported == 0 {
		job.Status = repository.JobFailed
		msg := strings.Join(insertErrors, "; ")
		job.ErrorMessage = &msg
	} else {
		job.Status = repository.JobSucceeded
	}

	// The request context may be gone; the job row still has to be closed.
	if err := s.repo.FinishImportJob(context.WithoutCancel(ctx), job); err != nil {
		l.WarnContext(ctx, "failed to finish import job", slog.Any("error", err))
	}
	publish(derefString(job.ErrorMessage))

	l.InfoContext(ctx, "sheet import finished",
		slog.String("job", job.ID.String()),
		slog.String("status", job.Status),
		slog.Int("imported", job.RowsImported),
		slog.Int("skipped", job.RowsSkipped),
		slog.Int("failed", job.RowsFailed))

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sheet import interrupted: %w", err)
	}

	return &ImportResult{
		JobID:        job.ID,
		Table:        table,
		Columns:      names,
		RowsTotal:    job.RowsTotal,
		RowsImported: job.RowsImported,
		RowsSkipped:  job.RowsSkipped,
		RowsFailed:   job.RowsFailed,
		Errors:       insertErrors,
	}, nil
}

// Progress returns the latest snapshot of an import, falling back to the job row once
// the in-memory snapshot has expired.
func (s *ImportService) Progress(ctx context.Context, jobID uuid.UUID) (*Progress, error) {
	if p, ok := s.progress.Get(jobID); ok {
		return &p, nil
	}

	job, err := s.repo.GetImportJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load import job: %w", err)
	}
	return &Progress{
		JobID:        job.ID,
		Table:        job.TableName,
		Status:       job.Status,
		RowsTotal:    job.RowsTotal,
		RowsImported: job.RowsImported,
		RowsSkipped:  job.RowsSkipped,
		RowsFailed:   job.RowsFailed,
		Message:      derefString(job.ErrorMessage),
	}, nil
}

// resolveColumns maps the header row, dropping blank headers and repeated columns.
func (s *ImportService) resolveColumns(table string, header []string) []sheetColumn {
	mapped := s.mapper.MapHeaders(table, header)
	seen := make(map[string]bool, len(mapped))

	columns := make([]sheetColumn, 0, len(mapped))
	for i, name := range mapped {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		columns = append(columns, sheetColumn{index: i, name: name})
	}
	return columns
}

// coerceRowsStream coerces sheet rows on a worker pool. Results arrive out of order.
func (s *ImportService) coerceRowsStream(ctx context.Context, table string, columns []sheetColumn, rows [][]string) <-chan coerceResult {
	workerCount := runtime.GOMAXPROCS(0)
	if workerCount < 1 {
		workerCount = 1
	}

	results := make(chan coerceResult, workerCount*4)
	jobs := make(chan coerceJob, workerCount*4)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					return
				}
				values, empty := s.coerceRow(table, columns, job.cells)
				select {
				case results <- coerceResult{lineNum: job.lineNum, values: values, empty: empty}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, cells := range rows {
			select {
			case jobs <- coerceJob{lineNum: i + 2, cells: cells}: // 1-indexed, after header
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (s *ImportService) coerceRow(table string, columns []sheetColumn, cells []string) ([]any, bool) {
	values := make([]any, len(columns))
	empty := true
	for i, c := range columns {
		var raw any
		if c.index < len(cells) {
			raw = cells[c.index]
		}
		values[i] = s.mapper.CoerceCell(table, c.name, raw)
		if values[i] != nil && values[i] != "" {
			empty = false
		}
	}
	return values, empty
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
