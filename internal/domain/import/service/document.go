package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/common"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/document"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/repository"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/sniffer"
)

// DocumentMeta is what the operator supplies alongside OCR text. A non-empty
// ClientName overrides the extracted one.
type DocumentMeta struct {
	ClientName string `json:"clientName"`
	Branch     string `json:"branch"`
	BlockCode  string `json:"blockCode"`
	CashDesk   string `json:"cashDesk"`
	User       string `json:"user"`
	SourceFile string `json:"sourceFile"`
}

// DocumentResult is the outcome of IngestDocument.
type DocumentResult struct {
	ID             int64                   `json:"id"`
	Classification document.Classification `json:"classification"`
	Fields         document.Fields         `json:"fields"`
}

// IngestDocument classifies OCR text, extracts its fields and stores it as paperwork.
func (s *ImportService) IngestDocument(ctx context.Context, text string, meta DocumentMeta) (*DocumentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, sniffer.ErrEmptyInput
	}

	classification := document.Classify(text)
	res := &DocumentResult{Classification: classification}
	if classification.Type == document.TypeUnknown {
		return res, fmt.Errorf("document could not be classified: %w", common.ErrBadRequest)
	}
	res.Fields = document.Extract(text, classification.Type)

	client := strings.TrimSpace(meta.ClientName)
	if client == "" {
		client = res.Fields.ClientName
	}
	if client == "" || strings.TrimSpace(meta.Branch) == "" || strings.TrimSpace(meta.BlockCode) == "" {
		return res, fmt.Errorf("client, branch and block are required: %w", common.ErrBadRequest)
	}

	id, err := s.repo.InsertPaperwork(ctx, &repository.PaperworkRecord{
		ClientName:   client,
		Branch:       strings.TrimSpace(meta.Branch),
		BlockCode:    strings.ToUpper(strings.TrimSpace(meta.BlockCode)),
		ContractDate: res.Fields.Date,
		Kind:         string(classification.Type),
		Amount:       res.Fields.Amount,
		PaymentType:  res.Fields.PaymentType,
		Folio:        res.Fields.Folio,
		CashDesk:     meta.CashDesk,
		User:         meta.User,
		SourceFile:   meta.SourceFile,
	})
	if err != nil {
		return res, fmt.Errorf("failed to store document: %w", err)
	}
	res.ID = id

	s.logger.InfoContext(ctx, "document stored",
		slog.String("method", "IngestDocument"),
		slog.String("type", string(classification.Type)),
		slog.Float64("confidence", classification.Confidence),
		slog.Int64("id", id))
	return res, nil
}
