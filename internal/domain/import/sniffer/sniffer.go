// Package sniffer provides automatic detection of pasted dispute layouts.
// It recognizes processor receipt emails, header tables, vertical exports, key-value
// blocks and bare tab-delimited rows, and extracts raw field values from each.
package sniffer

import (
	"errors"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
)

// Format identifies the layout a detector recognized.
type Format string

const (
	FormatUnknown          Format = ""
	FormatNarrativeReceipt Format = "narrative_receipt"
	FormatHeaderTable      Format = "header_table"
	FormatVerticalBlock    Format = "vertical_block"
	FormatKeyValue         Format = "key_value"
	FormatDelimited        Format = "delimited"
)

var (
	ErrEmptyInput         = errors.New("input is empty")
	ErrUnrecognizedFormat = errors.New("could not recognize input layout")
)

var (
	lineBreak     = regexp.MustCompile(`\r?\n`)
	cellSeparator = regexp.MustCompile(`\t|\s{2,}`)
)

// RawRecord holds the un-normalized values a detector extracted for one record.
type RawRecord map[dispute.Field]string

// Document is pasted text split into its non-blank lines.
type Document struct {
	Text  string
	Lines []string
}

// NewDocument normalizes text to NFC and drops blank lines.
func NewDocument(text string) *Document {
	text = norm.NFC.String(text)

	parts := lineBreak.Split(text, -1)
	lines := make([]string, 0, len(parts))
	for _, line := range parts {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	return &Document{Text: text, Lines: lines}
}

// SplitCells splits a line on a tab or a run of two or more whitespace characters.
func SplitCells(line string) []string {
	return cellSeparator.Split(line, -1)
}

// Detector pairs a layout predicate with the extractor for that layout.
type Detector struct {
	Format Format
	// Processor is stamped on every extracted record when set.
	Processor string
	Match     func(doc *Document) bool
	Extract   func(doc *Document) []RawRecord
}

// Detection is the outcome of running the detector chain over a document.
type Detection struct {
	Format  Format
	Records []RawRecord
}

// Detectors returns the detector chain in precedence order.
func Detectors(v *Vocabulary) []Detector {
	return []Detector{
		{Format: FormatNarrativeReceipt, Processor: "CREDOMATIC", Match: v.isNarrative, Extract: extractNarrative},
		{Format: FormatHeaderTable, Processor: "EFEVOO", Match: v.isHeaderTable, Extract: v.extractHeaderTable},
		{Format: FormatVerticalBlock, Processor: "BSD", Match: v.isVerticalBlock, Extract: v.extractVerticalBlock},
		{Format: FormatKeyValue, Match: isKeyValue, Extract: v.extractKeyValue},
		{Format: FormatDelimited, Match: isDelimited, Extract: extractDelimited},
	}
}

// Detect runs detectors in order and extracts records with the first that matches.
func Detect(text string, detectors []Detector) (*Detection, error) {
	doc := NewDocument(text)
	if len(doc.Lines) == 0 {
		return nil, ErrEmptyInput
	}

	for _, d := range detectors {
		if !d.Match(doc) {
			continue
		}
		records := d.Extract(doc)
		if d.Processor != "" {
			for _, rec := range records {
				rec[dispute.FieldProcessor] = d.Processor
			}
		}
		return &Detection{Format: d.Format, Records: records}, nil
	}

	return nil, ErrUnrecognizedFormat
}

// Receipt email labels.
var (
	narrativeDate          = regexp.MustCompile(`Fecha:\s*(\d{2}/\d{2}/\d{4})`)
	narrativeMerchant      = regexp.MustCompile(`Señores:\s*([^\n\r]+)`)
	narrativeAmount        = regexp.MustCompile(`Monto de la Transacción:\s*([\d,.]+)`)
	narrativeCard          = regexp.MustCompile(`Número de Tarjeta:\s*(\d+X+\d+)`)
	narrativeAuthorization = regexp.MustCompile(`Código de Autorización:\s*(\d+)`)
	narrativeCase          = regexp.MustCompile(`No\.\s*caso:\s*([^\n\r]+)`)
	narrativeAffiliate     = regexp.MustCompile(`No\. Afiliado:\s*(\d+)`)
)

func (v *Vocabulary) isNarrative(doc *Document) bool {
	for _, marker := range v.NarrativeMarkers {
		if strings.Contains(doc.Text, marker) {
			return true
		}
	}
	return false
}

func extractNarrative(doc *Document) []RawRecord {
	rec := RawRecord{}
	capture := func(re *regexp.Regexp, field dispute.Field) {
		if m := re.FindStringSubmatch(doc.Text); m != nil {
			rec[field] = strings.TrimSpace(m[1])
		}
	}

	capture(narrativeDate, dispute.FieldSaleDate)
	capture(narrativeMerchant, dispute.FieldMerchantName)
	capture(narrativeAmount, dispute.FieldAmount)
	capture(narrativeCard, dispute.FieldCardNumber)
	capture(narrativeAuthorization, dispute.FieldAuthorization)
	capture(narrativeCase, dispute.FieldTransactionID)
	capture(narrativeAffiliate, dispute.FieldAffiliationID)

	return []RawRecord{rec}
}

func (v *Vocabulary) isHeaderTable(doc *Document) bool {
	if len(doc.Lines) < 2 {
		return false
	}
	return slices.ContainsFunc(headerTokens(doc.Lines[0]), func(h string) bool {
		return slices.Contains(v.TableMarkers, h)
	})
}

// extractHeaderTable maps columns through the table dictionary. Columns it does not
// know fall back to the back-office labels.
func (v *Vocabulary) extractHeaderTable(doc *Document) []RawRecord {
	return extractTable(doc, func(h string) dispute.Field {
		if field, ok := v.TableFields[h]; ok {
			return field
		}
		return v.General[h]
	})
}

func (v *Vocabulary) isVerticalBlock(doc *Document) bool {
	n := len(v.VerticalHeaders)
	if n == 0 || len(doc.Lines) <= n {
		return false
	}
	for i, h := range v.VerticalHeaders {
		if strings.ToUpper(strings.TrimSpace(doc.Lines[i])) != h {
			return false
		}
	}
	return true
}

func (v *Vocabulary) extractVerticalBlock(doc *Document) []RawRecord {
	n := len(v.VerticalHeaders)
	count := (len(doc.Lines) - n) / n

	records := make([]RawRecord, 0, count)
	for i := 0; i < count; i++ {
		block := doc.Lines[n+i*n : n+(i+1)*n]
		rec := RawRecord{}
		for j, h := range v.VerticalHeaders {
			field, ok := v.VerticalFields[h]
			if !ok {
				continue
			}
			if value := strings.TrimSpace(block[j]); value != "" {
				rec[field] = value
			}
		}
		records = append(records, rec)
	}
	return records
}

func isKeyValue(doc *Document) bool {
	if len(doc.Lines) <= 2 {
		return false
	}
	for _, line := range doc.Lines {
		if len(SplitCells(strings.TrimSpace(line))) != 2 {
			return false
		}
	}
	return true
}

func (v *Vocabulary) extractKeyValue(doc *Document) []RawRecord {
	rec := RawRecord{}
	for _, line := range doc.Lines {
		cells := SplitCells(strings.TrimSpace(line))
		key := strings.ToUpper(strings.TrimSpace(cells[0]))
		value := strings.TrimSpace(cells[1])

		field, ok := v.General[key]
		if !ok || field == "" || value == "" {
			continue
		}
		rec[field] = value
	}
	return []RawRecord{rec}
}

func isDelimited(doc *Document) bool {
	return slices.ContainsFunc(doc.Lines, func(line string) bool {
		return len(strings.Split(line, "\t")) >= 3
	})
}

// Positional columns of a bare tab-delimited row.
var delimitedColumns = []dispute.Field{
	dispute.FieldAffiliationID,
	dispute.FieldMerchantName,
	dispute.FieldAmount,
	dispute.FieldCardNumber,
	dispute.FieldAuthorization,
	dispute.FieldTransactionID,
	dispute.FieldSaleDate,
}

func extractDelimited(doc *Document) []RawRecord {
	var records []RawRecord
	for _, line := range doc.Lines {
		tokens := strings.Split(line, "\t")
		if len(tokens) < 3 {
			continue
		}
		rec := RawRecord{}
		for i, field := range delimitedColumns {
			if i >= len(tokens) {
				break
			}
			if value := strings.TrimSpace(tokens[i]); value != "" {
				rec[field] = value
			}
		}
		records = append(records, rec)
	}
	return records
}

// extractTable maps every data line positionally through the header row. When two
// columns map to the same field the rightmost non-empty value wins.
func extractTable(doc *Document, fieldFor func(header string) dispute.Field) []RawRecord {
	headers := headerTokens(doc.Lines[0])

	records := make([]RawRecord, 0, len(doc.Lines)-1)
	for _, line := range doc.Lines[1:] {
		cells := SplitCells(line)
		rec := RawRecord{}
		for i, h := range headers {
			field := fieldFor(h)
			if field == "" || i >= len(cells) {
				continue
			}
			if value := strings.TrimSpace(cells[i]); value != "" {
				rec[field] = value
			}
		}
		records = append(records, rec)
	}
	return records
}

func headerTokens(line string) []string {
	cells := SplitCells(line)
	for i, c := range cells {
		cells[i] = strings.ToUpper(strings.TrimSpace(c))
	}
	return cells
}
