package schema

import (
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/normalizer"
)

const (
	minYear = 1901
	maxYear = 2099

	// Days between the spreadsheet serial epoch (1899-12-30) and 1970-01-01.
	serialUnixOffset = 25569
	maxSerial        = 100000
)

var (
	dateCharset   = regexp.MustCompile(`^[\d\-/\s.:]+$`)
	numericString = regexp.MustCompile(`^\d+(\.\d+)?$`)
	trailingZeros = regexp.MustCompile(`\.0+$`)
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]`)
)

var dateLayouts = []struct {
	pattern *regexp.Regexp
	layout  string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), "2006-01-02"},
	{regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`), "2/1/2006"},
	{regexp.MustCompile(`^\d{4}/\d{2}/\d{2}$`), "2006/01/02"},
}

// Mapper resolves sheet headers to columns and coerces cells to column types.
// It is safe for concurrent use.
type Mapper struct {
	tables Registry
	logger *slog.Logger
}

// NewMapper creates a mapper over tables.
func NewMapper(tables Registry, logger *slog.Logger) *Mapper {
	return &Mapper{tables: tables, logger: logger}
}

// Table returns the registered table named name.
func (m *Mapper) Table(name string) (*Table, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return t, nil
}

// MapHeaders resolves each header through the table's dictionary, falling back to the
// header with whitespace runs replaced by "_".
func (m *Mapper) MapHeaders(table string, headers []string) []string {
	var dictionary map[string]string
	if t, ok := m.tables[table]; ok {
		dictionary = t.Headers
	}

	columns := make([]string, len(headers))
	for i, h := range headers {
		if col, ok := dictionary[strings.TrimSpace(h)]; ok {
			columns[i] = col
			continue
		}
		columns[i] = FallbackColumnName(h)
	}
	return columns
}

// CoerceCell converts raw to the type declared for column. nil, empty strings and
// values that cannot be coerced yield nil; a bad cell never fails the row.
func (m *Mapper) CoerceCell(table, column string, raw any) any {
	if raw == nil {
		return nil
	}
	if s, ok := raw.(string); ok && s == "" {
		return nil
	}

	var colType ColumnType
	if t, ok := m.tables[table]; ok {
		colType = t.Columns[column]
	}

	switch colType {
	case Date:
		return m.coerceDate(column, raw)
	case Decimal:
		return m.coerceDecimal(column, raw)
	case Varchar, Text:
		s := strings.TrimSpace(stringify(raw))
		if strings.Contains(column, "tarjeta") {
			s = strings.TrimSpace(trailingZeros.ReplaceAllString(s, ""))
		}
		return s
	default:
		lower := strings.ToLower(column)
		if strings.Contains(lower, "tarjeta") {
			return trailingZeros.ReplaceAllString(stringify(raw), "")
		}
		if tm, ok := raw.(time.Time); ok && strings.Contains(lower, "fecha") {
			return m.checkYear(column, dateOnly(tm))
		}
		return raw
	}
}

func (m *Mapper) coerceDate(column string, raw any) any {
	switch v := raw.(type) {
	case time.Time:
		return m.checkYear(column, dateOnly(v))
	case float64:
		return m.fromSerial(column, v)
	case float32:
		return m.fromSerial(column, float64(v))
	case int:
		return m.fromSerial(column, float64(v))
	case int64:
		return m.fromSerial(column, float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		if !dateCharset.MatchString(s) {
			m.logger.Warn("date cell has invalid characters", slog.String("column", column), slog.String("value", s))
			return nil
		}
		if numericString.MatchString(s) {
			serial, err := strconv.ParseFloat(s, 64)
			if err == nil {
				return m.fromSerial(column, serial)
			}
		}
		for _, candidate := range dateLayouts {
			if !candidate.pattern.MatchString(s) {
				continue
			}
			t, err := time.Parse(candidate.layout, s)
			if err != nil {
				m.logger.Warn("date cell is not a calendar date", slog.String("column", column), slog.String("value", s))
				return nil
			}
			return m.checkYear(column, t)
		}
		m.logger.Warn("unrecognized date format", slog.String("column", column), slog.String("value", s))
		return nil
	default:
		m.logger.Warn("unsupported date cell type", slog.String("column", column), slog.String("type", fmt.Sprintf("%T", raw)))
		return nil
	}
}

func (m *Mapper) fromSerial(column string, serial float64) any {
	if math.IsNaN(serial) || serial < 1 || serial > maxSerial {
		m.logger.Warn("serial date out of range", slog.String("column", column), slog.Float64("value", serial))
		return nil
	}
	seconds := (serial - serialUnixOffset) * 86400
	t := time.Unix(0, 0).UTC().Add(time.Duration(seconds * float64(time.Second)))
	return m.checkYear(column, dateOnly(t))
}

func (m *Mapper) checkYear(column string, t time.Time) any {
	if y := t.Year(); y < minYear || y > maxYear {
		m.logger.Warn("date year out of range", slog.String("column", column), slog.Int("year", y))
		return nil
	}
	return t
}

func (m *Mapper) coerceDecimal(column string, raw any) any {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case float32:
		return m.coerceDecimal(column, float64(v))
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		s := strings.TrimSpace(v)
		if column == "monto_mnx" && strings.Contains(s, ",") && strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			// European 4.000,45
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
		s = nonNumeric.ReplaceAllString(s, "")

		num, ok := normalizer.ParseLeadingFloat(s)
		if !ok || math.IsInf(num, 0) {
			m.logger.Warn("decimal cell is not a number", slog.String("column", column), slog.String("value", v))
			return nil
		}
		return num
	default:
		m.logger.Warn("unsupported decimal cell type", slog.String("column", column), slog.String("type", fmt.Sprintf("%T", raw)))
		return nil
	}
}

func dateOnly(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(normalizer.CanonicalDateLayout)
	default:
		return fmt.Sprint(v)
	}
}
