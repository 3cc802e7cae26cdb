package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/conversion"
)

type mockConverter struct {
	mock.Mock
}

func (m *mockConverter) ConvertByYear(ctx context.Context, year string) (*conversion.Result, error) {
	args := m.Called(ctx, year)
	res, _ := args.Get(0).(*conversion.Result)
	return res, args.Error(1)
}

func serve(h *ConversionHandler, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Routes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/disputes/convert-currency", strings.NewReader(body)))
	return rec
}

func TestConvertCurrency(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		body     string
		wantYear string
		result   *conversion.Result
		err      error
		want     int
	}{
		{"numeric year", `{"year":2025}`, "2025", &conversion.Result{Success: true, Year: "2025"}, nil, http.StatusOK},
		{"string year", `{"year":" 2024 "}`, "2024", &conversion.Result{Success: true, Year: "2024"}, nil, http.StatusOK},
		{"missing year", `{}`, "", &conversion.Result{Message: "year is required"}, nil, http.StatusOK},
		{"read failure", `{"year":"2025"}`, "2025", nil, errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockConverter{}
			m.On("ConvertByYear", mock.Anything, tt.wantYear).Return(tt.result, tt.err)

			rec := serve(NewConversionHandler(m, logger), tt.body)
			assert.Equal(t, tt.want, rec.Code)
			m.AssertExpectations(t)
		})
	}
}

func TestConvertCurrency_BadBody(t *testing.T) {
	m := &mockConverter{}
	rec := serve(NewConversionHandler(m, slog.New(slog.NewTextHandler(io.Discard, nil))), `{"year":[1]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	m.AssertNotCalled(t, "ConvertByYear", mock.Anything, mock.Anything)
}
