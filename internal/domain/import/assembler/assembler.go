// Package assembler turns the raw values extracted by the detector chain into
// canonical dispute records with defaults applied.
package assembler

import (
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/normalizer"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/sniffer"
	"github.com/FACorreiaa/backoffice-ingest/pkg/observability"
)

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Assembler detects the layout of pasted text and assembles canonical records.
// It holds no mutable state and is safe for concurrent use.
type Assembler struct {
	detectors []sniffer.Detector
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithClock replaces the wall clock used for date defaults.
func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

// WithDetectors replaces the default detector chain.
func WithDetectors(detectors []sniffer.Detector) Option {
	return func(a *Assembler) {
		a.detectors = detectors
	}
}

// New creates an assembler over the default vocabulary.
func New(logger *slog.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		detectors: sniffer.Detectors(sniffer.DefaultVocabulary()),
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// DetectAndAssemble returns the records found in text. Unrecognized or empty input
// yields an empty slice.
func (a *Assembler) DetectAndAssemble(text string) []dispute.Record {
	_, records := a.Detect(text)
	return records
}

// Detect is DetectAndAssemble that also reports the recognized layout.
func (a *Assembler) Detect(text string) (sniffer.Format, []dispute.Record) {
	detection, err := sniffer.Detect(text, a.detectors)
	if err != nil {
		if !errors.Is(err, sniffer.ErrEmptyInput) {
			a.logger.Debug("no detector matched pasted text", slog.Int("length", len(text)))
		}
		return sniffer.FormatUnknown, []dispute.Record{}
	}

	records := make([]dispute.Record, 0, len(detection.Records))
	for _, raw := range detection.Records {
		records = append(records, a.Assemble(raw))
	}

	observability.RecordsDetected.WithLabelValues(string(detection.Format)).Add(float64(len(records)))
	a.logger.Debug("assembled pasted records",
		slog.String("format", string(detection.Format)),
		slog.Int("records", len(records)))

	return detection.Format, records
}

// Assemble normalizes raw values and fills defaults: year from the clock unless a
// 4-digit year was supplied, request date today, euroskin "false", capture status
// EN PROCESO. The request month always follows the request date.
func (a *Assembler) Assemble(raw sniffer.RawRecord) dispute.Record {
	now := a.now()

	var r dispute.Record
	for field, value := range raw {
		r.Set(field, strings.TrimSpace(value))
	}

	r.Amount = normalizer.NormalizeAmount(raw[dispute.FieldAmount])
	r.MerchantName = normalizer.CleanDescription(r.MerchantName)
	r.ClientName = normalizer.CleanDescription(r.ClientName)

	for _, field := range dispute.DateFields {
		value := r.Get(field)
		if value == "" {
			continue
		}
		// Only the date token of values such as "19/08/2025 10:35".
		date := normalizer.NormalizeDate(strings.Fields(value)[0])
		if !normalizer.IsCanonicalDate(date) {
			a.logger.Debug("discarding unparseable date",
				slog.String("field", string(field)),
				slog.String("value", value))
			date = ""
		}
		r.Set(field, date)
	}

	if r.Processor != "" {
		processor := dispute.CanonicalProcessor(r.Processor)
		if processor == "" {
			a.logger.Debug("discarding unknown processor", slog.String("processor", r.Processor))
		}
		r.Processor = processor
	}

	if !yearPattern.MatchString(r.Year) {
		r.Year = strconv.Itoa(now.Year())
	}

	if r.RequestDate == "" {
		r.RequestDate = now.Format(normalizer.CanonicalDateLayout)
	}
	r.RequestMonth = normalizer.MonthNameFromDate(r.RequestDate)

	r.IsEuroskinFlag = dispute.CanonicalFlag(r.IsEuroskinFlag)

	if status, ok := dispute.ParseCaptureStatus(r.CaptureStatus); ok {
		r.CaptureStatus = status
	} else {
		r.CaptureStatus = dispute.StatusInProcess
	}

	return r
}
