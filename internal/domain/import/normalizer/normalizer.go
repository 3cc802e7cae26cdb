// Package normalizer handles regional money and date parsing.
// Converts the amount and date spellings found in processor emails and back-office
// spreadsheets into the canonical representation stored in the disputes table.
package normalizer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// CanonicalDateLayout is the only date shape persisted for dispute records.
const CanonicalDateLayout = "2006-01-02"

var monthNames = [12]string{
	"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

var (
	slashDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	dashDatePattern  = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
	isoDatePattern   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// NormalizeAmount converts a locale-ambiguous amount string into a float.
// Anything that is not a digit, '.' or ',' is dropped first. When both separators are
// present the last one is the decimal separator; a lone comma followed by at most two
// digits is a decimal comma, otherwise commas are thousands separators.
// Unparseable or non-finite input yields 0.
func NormalizeAmount(raw string) float64 {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return 0
	}

	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")

	switch {
	case hasDot && hasComma:
		if strings.LastIndex(cleaned, ".") > strings.LastIndex(cleaned, ",") {
			// American: 1,234.56
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		} else {
			// European: 1.234,56
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		}
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	val, ok := ParseLeadingFloat(cleaned)
	if !ok || math.IsInf(val, 0) || math.IsNaN(val) {
		return 0
	}
	return val
}

// ParseLeadingFloat parses the longest numeric prefix of s, the way spreadsheet
// tooling and browsers do ("12.5abc" is 12.5, "1.2.3" is 1.2).
// Leading whitespace is ignored. ok is false when no digits lead the string.
func ParseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}

	end := i
	// Exponent only counts when at least one digit follows it.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		expDigits := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			expDigits++
		}
		if expDigits > 0 {
			end = j
		}
	}

	val, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		// Out of range still reports ±Inf which callers reject.
		if numErr, ok := err.(*strconv.NumError); ok && numErr.Err == strconv.ErrRange {
			return val, true
		}
		return 0, false
	}
	return val, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// NormalizeDate rewrites D/M/YYYY and D-M-YYYY into YYYY-MM-DD.
// Day and month may have one or two digits; both are zero-padded in the output, so
// strict DD/MM/YYYY input is a subset of what is accepted.
// Characters other than digits, '/' and '-' are dropped first; any other shape is
// returned as cleaned. Empty input yields an empty string.
func NormalizeDate(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '/' || r == '-' {
			return r
		}
		return -1
	}, raw)
	if cleaned == "" {
		return ""
	}

	m := slashDatePattern.FindStringSubmatch(cleaned)
	if m == nil {
		m = dashDatePattern.FindStringSubmatch(cleaned)
	}
	if m == nil {
		return cleaned
	}

	return m[3] + "-" + padTwo(m[2]) + "-" + padTwo(m[1])
}

func padTwo(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// IsCanonicalDate reports whether s is a calendar-valid YYYY-MM-DD date.
func IsCanonicalDate(s string) bool {
	if len(s) != len(CanonicalDateLayout) {
		return false
	}
	_, err := time.Parse(CanonicalDateLayout, s)
	return err == nil
}

// MonthName returns the upper-case Spanish name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// CurrentMonthName returns the Spanish month name for now.
func CurrentMonthName(now time.Time) string {
	return MonthName(now.Month())
}

// MonthNameFromDate extracts the month of a YYYY-MM-DD or D/M/YYYY date and returns
// its Spanish name. Unrecognized input yields "".
func MonthNameFromDate(date string) string {
	fields := strings.Fields(date)
	if len(fields) == 0 {
		return ""
	}

	m := isoDatePattern.FindStringSubmatch(NormalizeDate(fields[0]))
	if m == nil {
		return ""
	}

	idx, err := strconv.Atoi(m[2])
	if err != nil {
		return ""
	}
	return MonthName(time.Month(idx))
}

// YearFromDate returns the four digit year of a YYYY-MM-DD date, or "".
func YearFromDate(date string) string {
	if m := isoDatePattern.FindStringSubmatch(strings.TrimSpace(date)); m != nil {
		return m[1]
	}
	return ""
}

// CleanDescription normalizes merchant/description text
func CleanDescription(raw string) string {
	// Trim whitespace
	result := strings.TrimSpace(raw)

	// Collapse multiple spaces
	result = spacePattern.ReplaceAllString(result, " ")

	return result
}
