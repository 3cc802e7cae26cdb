package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/sniffer"
)

// StatusUpdate is one "id<TAB>status" line of a bulk capture status paste.
type StatusUpdate struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// StatusUpdateError is a line that could not be applied.
type StatusUpdateError struct {
	Line    int    `json:"line"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// StatusUpdateResult summarizes a bulk capture status update.
type StatusUpdateResult struct {
	Processed   int                 `json:"processed"`
	Updated     int                 `json:"updated"`
	RowsChanged int64               `json:"rowsChanged"`
	NotFound    []StatusUpdate      `json:"notFound"`
	Errors      []StatusUpdateError `json:"errors"`
}

// UpdateCaptureStatuses applies pasted "id<TAB>status" lines. Each id updates every
// dispute whose transaction id or authorization code contains it.
func (s *ImportService) UpdateCaptureStatuses(ctx context.Context, text string) (*StatusUpdateResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, sniffer.ErrEmptyInput
	}

	l := s.logger.With(slog.String("method", "UpdateCaptureStatuses"))

	res := &StatusUpdateResult{NotFound: []StatusUpdate{}, Errors: []StatusUpdateError{}}
	for i, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.Processed++
		lineNum := i + 1

		update, err := parseStatusLine(line)
		if err != nil {
			res.Errors = append(res.Errors, StatusUpdateError{Line: lineNum, ID: update.ID, Message: err.Error()})
			continue
		}

		n, err := s.repo.UpdateCaptureStatus(ctx, update.ID, update.Status)
		if err != nil {
			l.WarnContext(ctx, "failed to update capture status", slog.String("id", update.ID), slog.Any("error", err))
			res.Errors = append(res.Errors, StatusUpdateError{Line: lineNum, ID: update.ID, Message: err.Error()})
			continue
		}
		if n == 0 {
			res.NotFound = append(res.NotFound, update)
			continue
		}
		res.Updated++
		res.RowsChanged += n
	}

	l.InfoContext(ctx, "capture statuses applied",
		slog.Int("processed", res.Processed),
		slog.Int("updated", res.Updated),
		slog.Int("not_found", len(res.NotFound)),
		slog.Int("errors", len(res.Errors)))
	return res, nil
}

func parseStatusLine(line string) (StatusUpdate, error) {
	var cells []string
	for _, c := range sniffer.SplitCells(strings.TrimSpace(line)) {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	if len(cells) < 2 {
		return StatusUpdate{ID: strings.TrimSpace(line)}, fmt.Errorf("expected an id and a status")
	}

	update := StatusUpdate{ID: cells[0]}
	status, ok := dispute.ParseCaptureStatus(strings.Join(cells[1:], " "))
	if !ok {
		return update, fmt.Errorf("unknown status %q", strings.Join(cells[1:], " "))
	}
	update.Status = status
	return update, nil
}
