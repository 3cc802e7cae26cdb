// Package handler exposes the currency conversion batch over HTTP.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/common"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/conversion"
)

// Converter runs a conversion batch for one year.
type Converter interface {
	ConvertByYear(ctx context.Context, year string) (*conversion.Result, error)
}

var _ Converter = (*conversion.Service)(nil)

type ConversionHandler struct {
	svc    Converter
	logger *slog.Logger
}

func NewConversionHandler(svc Converter, logger *slog.Logger) *ConversionHandler {
	return &ConversionHandler{svc: svc, logger: logger}
}

func (h *ConversionHandler) Routes(r chi.Router) {
	r.Post("/api/disputes/convert-currency", h.ConvertCurrency)
}

// yearParam accepts the year as a JSON string or number.
type yearParam string

func (y *yearParam) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*y = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*y = yearParam(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("year must be a string or a number")
	}
	*y = yearParam(n.String())
	return nil
}

type convertRequest struct {
	Year yearParam `json:"year"`
}

// ConvertCurrency runs the batch. A missing year or a year with nothing to convert is
// still a 200 carrying success=false.
func (h *ConversionHandler) ConvertCurrency(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	res, err := h.svc.ConvertByYear(r.Context(), string(req.Year))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "currency conversion failed", slog.String("year", string(req.Year)), slog.Any("error", err))
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, res)
}
