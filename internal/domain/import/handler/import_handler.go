// Package handler exposes the import service over HTTP.
package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/common"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/sniffer"
)

// ImportService is the subset of service.ImportService served over HTTP.
type ImportService interface {
	Preview(text string) *service.Preview
	IngestText(ctx context.Context, text string) (*service.IngestResult, error)
	InsertRecords(ctx context.Context, records []dispute.Record) (*service.IngestResult, error)
	UpdateCaptureStatuses(ctx context.Context, text string) (*service.StatusUpdateResult, error)
	ImportSheet(ctx context.Context, table, fileName string, data io.Reader) (*service.ImportResult, error)
	Progress(ctx context.Context, jobID uuid.UUID) (*service.Progress, error)
	IngestDocument(ctx context.Context, text string, meta service.DocumentMeta) (*service.DocumentResult, error)
}

var _ ImportService = (*service.ImportService)(nil)

// ImportHandler serves dispute paste ingestion, spreadsheet uploads and documents.
type ImportHandler struct {
	svc            ImportService
	maxUploadBytes int64
	logger         *slog.Logger
}

const defaultMaxUploadBytes = 50 << 20

// NewImportHandler creates the handler. maxUploadBytes <= 0 selects 50 MiB.
func NewImportHandler(svc ImportService, maxUploadBytes int64, logger *slog.Logger) *ImportHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &ImportHandler{svc: svc, maxUploadBytes: maxUploadBytes, logger: logger}
}

// Routes mounts the handler on r.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Route("/api/disputes", func(r chi.Router) {
		r.Post("/preview", h.Preview)
		r.Post("/ingest", h.Ingest)
		r.Post("/records", h.InsertRecords)
		r.Post("/capture-status", h.UpdateCaptureStatuses)
	})
	r.Post("/api/upload/{table}", h.UploadSheet)
	r.Get("/api/upload/progress/{jobID}", h.UploadProgress)
	r.Post("/api/documents", h.IngestDocument)
}

type textRequest struct {
	Text string `json:"text"`
}

type recordsRequest struct {
	Records []dispute.Record `json:"records"`
}

type documentRequest struct {
	Text string `json:"text"`
	service.DocumentMeta
}

func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, h.svc.Preview(req.Text))
}

func (h *ImportHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.IngestText(r.Context(), req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, res)
}

func (h *ImportHandler) InsertRecords(w http.ResponseWriter, r *http.Request) {
	var req recordsRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.InsertRecords(r.Context(), req.Records)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, res)
}

func (h *ImportHandler) UpdateCaptureStatuses(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.UpdateCaptureStatuses(r.Context(), req.Text)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, res)
}

// UploadSheet accepts a multipart form with the workbook in the "file" field.
func (h *ImportHandler) UploadSheet(w http.ResponseWriter, r *http.Request) {
	table := chi.URLParam(r, "table")
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, fmt.Errorf("file field is required: %w", errors.Join(common.ErrBadRequest, err)))
		return
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".xlsx" && ext != ".xlsm" {
		h.writeError(w, r, fmt.Errorf("unsupported file type %q: %w", ext, common.ErrBadRequest))
		return
	}

	res, err := h.svc.ImportSheet(r.Context(), table, header.Filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, res)
}

func (h *ImportHandler) UploadProgress(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("invalid job id: %w", common.ErrBadRequest))
		return
	}
	p, err := h.svc.Progress(r.Context(), jobID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, struct {
		*service.Progress
		Percent int `json:"percent"`
	}{p, p.Percent()})
}

func (h *ImportHandler) IngestDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.IngestDocument(r.Context(), req.Text, req.DocumentMeta)
	if err != nil {
		if res != nil && common.StatusFor(err) == http.StatusBadRequest {
			common.WriteJSON(w, http.StatusUnprocessableEntity, struct {
				Error string `json:"error"`
				*service.DocumentResult
			}{err.Error(), res})
			return
		}
		h.writeError(w, r, err)
		return
	}
	common.WriteJSON(w, http.StatusCreated, res)
}

func (h *ImportHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "import request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	common.WriteJSON(w, status, common.ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, sniffer.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, sniffer.ErrUnrecognizedFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTableNotAllowed):
		return http.StatusForbidden
	default:
		return common.StatusFor(err)
	}
}
