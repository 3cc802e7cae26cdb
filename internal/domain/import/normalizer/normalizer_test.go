package normalizer

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNormalizeAmount_European(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"1.234,56", 1234.56},
		{"1.000.000,00", 1000000},
		{"45,23", 45.23},
		{"0,99", 0.99},
		{"€ 12,5", 12.5},
	}

	for _, tc := range tests {
		got := NormalizeAmount(tc.input)
		if got != tc.expected {
			t.Errorf("NormalizeAmount(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestNormalizeAmount_American(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"1,234.56", 1234.56},
		{"$1,000,000.00", 1000000},
		{"45.23", 45.23},
		{"MXN 29.99", 29.99},
		{"1,234", 1234},
		{"1,234,567", 1234567},
		{"1500", 1500},
	}

	for _, tc := range tests {
		got := NormalizeAmount(tc.input)
		if got != tc.expected {
			t.Errorf("NormalizeAmount(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestNormalizeAmount_Garbage(t *testing.T) {
	tests := []string{"", "abc", "$", ",", ".", "N/A", strings.Repeat("9", 400)}

	for _, input := range tests {
		if got := NormalizeAmount(input); got != 0 {
			t.Errorf("NormalizeAmount(%q) = %v, want 0", input, got)
		}
	}
}

func TestNormalizeAmount_Idempotent(t *testing.T) {
	inputs := []string{"1.234,56", "$1,234.56", "45,2", "1,234,567", "0,99", "12.5.7", "300"}

	for _, input := range inputs {
		first := NormalizeAmount(input)
		second := NormalizeAmount(strconv.FormatFloat(first, 'f', -1, 64))
		if first != second {
			t.Errorf("NormalizeAmount not idempotent for %q: %v then %v", input, first, second)
		}
	}
}

func TestParseLeadingFloat(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"12.5abc", 12.5, true},
		{"1.2.3", 1.2, true},
		{".5", 0.5, true},
		{"  -3", -3, true},
		{"1e3", 1000, true},
		{"1e", 1, true},
		{".", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tc := range tests {
		got, ok := ParseLeadingFloat(tc.input)
		if ok != tc.ok || got != tc.expected {
			t.Errorf("ParseLeadingFloat(%q) = %v, %v; want %v, %v", tc.input, got, ok, tc.expected, tc.ok)
		}
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"15/08/2025", "2025-08-15"},
		{"15-08-2025", "2025-08-15"},
		{"5/8/2025", "2025-08-05"},
		{" 01/12/2024 ", "2024-12-01"},
		{"2025-08-15", "2025-08-15"},
		{"Fecha: 15/08/2025", "2025-08-15"},
		{"15/08-2025", "15/08-2025"},
		{"", ""},
		{"sin fecha", ""},
	}

	for _, tc := range tests {
		got := NormalizeDate(tc.input)
		if got != tc.expected {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestNormalizeDate_PadsEveryDayAndMonth(t *testing.T) {
	for month := 1; month <= 12; month++ {
		for day := 1; day <= 31; day++ {
			want := fmt.Sprintf("2025-%02d-%02d", month, day)
			for _, input := range []string{
				fmt.Sprintf("%02d/%02d/2025", day, month),
				fmt.Sprintf("%02d-%02d-2025", day, month),
				fmt.Sprintf("%d/%d/2025", day, month),
			} {
				if got := NormalizeDate(input); got != want {
					t.Fatalf("NormalizeDate(%q) = %q, want %q", input, got, want)
				}
			}
		}
	}
}

func TestIsCanonicalDate(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"2025-08-15", true},
		{"2024-02-29", true},
		{"2025-02-30", false},
		{"2025-8-15", false},
		{"15/08/2025", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := IsCanonicalDate(tc.input); got != tc.expected {
			t.Errorf("IsCanonicalDate(%q) = %v, want %v", tc.input, got, tc.expected)
		}
	}
}

func TestMonthNames(t *testing.T) {
	if got := CurrentMonthName(time.Date(2025, time.August, 19, 0, 0, 0, 0, time.UTC)); got != "AGOSTO" {
		t.Errorf("CurrentMonthName = %q, want AGOSTO", got)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"2025-01-10", "ENERO"},
		{"10/12/2025", "DICIEMBRE"},
		{"19/08/2025 10:35", "AGOSTO"},
		{"2025-13-01", ""},
		{"garbage", ""},
		{"", ""},
	}

	for _, tc := range tests {
		if got := MonthNameFromDate(tc.input); got != tc.expected {
			t.Errorf("MonthNameFromDate(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestYearFromDate(t *testing.T) {
	if got := YearFromDate("2025-08-15"); got != "2025" {
		t.Errorf("YearFromDate = %q, want 2025", got)
	}
	if got := YearFromDate("15/08/2025"); got != "" {
		t.Errorf("YearFromDate = %q, want empty", got)
	}
}

func TestCleanDescription(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  CLINICA   EUROSKIN  ", "CLINICA EUROSKIN"},
		{"TIENDA\tCENTRO", "TIENDA CENTRO"},
		{"", ""},
	}

	for _, tc := range tests {
		got := CleanDescription(tc.input)
		if got != tc.expected {
			t.Errorf("CleanDescription(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
