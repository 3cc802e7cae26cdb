package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/common"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/document"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/sniffer"
)

type stubImportService struct {
	ingestErr   error
	sheetErr    error
	progressErr error
	documentErr error

	gotTable   string
	gotFile    string
	gotBytes   int
	gotRecords []dispute.Record
	gotMeta    service.DocumentMeta
}

func (s *stubImportService) Preview(text string) *service.Preview {
	return &service.Preview{Format: sniffer.FormatDelimited, Records: []dispute.Record{{TransactionID: text}}}
}

func (s *stubImportService) IngestText(ctx context.Context, text string) (*service.IngestResult, error) {
	if s.ingestErr != nil {
		return nil, s.ingestErr
	}
	return &service.IngestResult{Attempted: 1, Inserted: 1, IDs: []int64{7}}, nil
}

func (s *stubImportService) InsertRecords(ctx context.Context, records []dispute.Record) (*service.IngestResult, error) {
	s.gotRecords = records
	return &service.IngestResult{Attempted: len(records), Inserted: len(records)}, nil
}

func (s *stubImportService) UpdateCaptureStatuses(ctx context.Context, text string) (*service.StatusUpdateResult, error) {
	return &service.StatusUpdateResult{Processed: 1, Updated: 1, RowsChanged: 1}, nil
}

func (s *stubImportService) ImportSheet(ctx context.Context, table, fileName string, data io.Reader) (*service.ImportResult, error) {
	s.gotTable, s.gotFile = table, fileName
	b, _ := io.ReadAll(data)
	s.gotBytes = len(b)
	if s.sheetErr != nil {
		return nil, s.sheetErr
	}
	return &service.ImportResult{Table: table, RowsImported: 2}, nil
}

func (s *stubImportService) Progress(ctx context.Context, jobID uuid.UUID) (*service.Progress, error) {
	if s.progressErr != nil {
		return nil, s.progressErr
	}
	return &service.Progress{JobID: jobID, RowsTotal: 4, RowsImported: 2}, nil
}

func (s *stubImportService) IngestDocument(ctx context.Context, text string, meta service.DocumentMeta) (*service.DocumentResult, error) {
	s.gotMeta = meta
	res := &service.DocumentResult{Classification: document.Classification{Type: document.TypeReceipt}}
	if s.documentErr != nil {
		return res, s.documentErr
	}
	res.ID = 11
	return res, nil
}

func newTestRouter(svc ImportService) http.Handler {
	r := chi.NewRouter()
	NewImportHandler(svc, 1<<20, slog.New(slog.NewTextHandler(io.Discard, nil))).Routes(r)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPreviewAndIngest(t *testing.T) {
	svc := &stubImportService{}
	h := newTestRouter(svc)

	rec := doJSON(t, h, http.MethodPost, "/api/disputes/preview", `{"text":"TX-1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var preview service.Preview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, sniffer.FormatDelimited, preview.Format)
	assert.Equal(t, "TX-1", preview.Records[0].TransactionID)

	rec = doJSON(t, h, http.MethodPost, "/api/disputes/ingest", `{"text":"x"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/disputes/ingest", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIngestErrorStatuses(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{sniffer.ErrEmptyInput, http.StatusBadRequest},
		{sniffer.ErrUnrecognizedFormat, http.StatusUnprocessableEntity},
		{common.ErrNotFound, http.StatusNotFound},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		h := newTestRouter(&stubImportService{ingestErr: tt.err})
		rec := doJSON(t, h, http.MethodPost, "/api/disputes/ingest", `{"text":"x"}`)
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())
	}
}

func TestInsertRecords(t *testing.T) {
	svc := &stubImportService{}
	h := newTestRouter(svc)

	rec := doJSON(t, h, http.MethodPost, "/api/disputes/records", `{"records":[{"processor":"EFEVOO","amount":12.5}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.gotRecords, 1)
	assert.Equal(t, "EFEVOO", svc.gotRecords[0].Processor)
	assert.Equal(t, 12.5, svc.gotRecords[0].Amount)

	rec = doJSON(t, h, http.MethodPost, "/api/disputes/capture-status", `{"text":"TX-1\tGANADA"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadSheet(t *testing.T) {
	svc := &stubImportService{}
	h := newTestRouter(svc)

	body, contentType := multipartBody(t, "file", "marzo.xlsx", []byte("PK-data"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/aclaraciones", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "aclaraciones", svc.gotTable)
	assert.Equal(t, "marzo.xlsx", svc.gotFile)
	assert.Equal(t, 7, svc.gotBytes)
}

func TestUploadSheet_Rejections(t *testing.T) {
	h := newTestRouter(&stubImportService{sheetErr: service.ErrTableNotAllowed})

	body, contentType := multipartBody(t, "file", "marzo.xlsx", []byte("PK"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload/usuarios", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body, contentType = multipartBody(t, "file", "notes.txt", []byte("hola"))
	req = httptest.NewRequest(http.MethodPost, "/api/upload/aclaraciones", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartBody(t, "other", "marzo.xlsx", []byte("PK"))
	req = httptest.NewRequest(http.MethodPost, "/api/upload/aclaraciones", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadProgress(t *testing.T) {
	h := newTestRouter(&stubImportService{})
	id := uuid.New()

	rec := doJSON(t, h, http.MethodGet, "/api/upload/progress/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, id.String(), body["jobId"])
	assert.Equal(t, float64(50), body["percent"])

	rec = doJSON(t, h, http.MethodGet, "/api/upload/progress/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = newTestRouter(&stubImportService{progressErr: common.ErrNotFound})
	rec = doJSON(t, h, http.MethodGet, "/api/upload/progress/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestDocument(t *testing.T) {
	svc := &stubImportService{}
	h := newTestRouter(svc)

	rec := doJSON(t, h, http.MethodPost, "/api/documents", `{"text":"Recibo","branch":"POLANCO","blockCode":"MEX"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "POLANCO", svc.gotMeta.Branch)
	assert.Equal(t, "MEX", svc.gotMeta.BlockCode)

	h = newTestRouter(&stubImportService{documentErr: common.ErrBadRequest})
	rec = doJSON(t, h, http.MethodPost, "/api/documents", `{"text":"Recibo"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bad request", body["error"])
	assert.NotNil(t, body["classification"])
}
