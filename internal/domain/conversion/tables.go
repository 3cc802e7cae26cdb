// Package conversion converts persisted dispute amounts into the base currency (MXN)
// using fixed per-region exchange rates.
package conversion

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// BaseCurrency is the currency converted amounts are expressed in.
const BaseCurrency = "MXN"

// Region is the country and currency a block code settles in.
type Region struct {
	Country  string `yaml:"country" json:"country"`
	Currency string `yaml:"currency" json:"currency"`
}

// Tables holds the block → region and currency → rate lookups. Tables are built once
// and never mutated.
type Tables struct {
	regions  map[string]Region
	rates    map[string]decimal.Decimal
	domestic []string
}

// DefaultTables returns the rate snapshot used when no override file is configured.
func DefaultTables() *Tables {
	return &Tables{
		regions: map[string]Region{
			"COL1": {Country: "Colombia", Currency: "COP"},
			"COL2": {Country: "Colombia", Currency: "COP"},
			"COL":  {Country: "Colombia", Currency: "COP"},
			"CR":   {Country: "Costa Rica", Currency: "CRC"},
			"CRI1": {Country: "Costa Rica", Currency: "CRC"},
			"CHI":  {Country: "Chile", Currency: "CLP"},
			"HON":  {Country: "Honduras", Currency: "HNL"},
			"ESP1": {Country: "España", Currency: "EUR"},
			"ESP2": {Country: "España", Currency: "EUR"},
			"BRA":  {Country: "Brasil", Currency: "BRL"},
			"USA1": {Country: "USA", Currency: "USD"},
		},
		rates: map[string]decimal.Decimal{
			BaseCurrency: decimal.NewFromInt(1),
			"COP":        decimal.RequireFromString("0.004573"),
			"CRC":        decimal.RequireFromString("0.037"),
			"CLP":        decimal.RequireFromString("0.019"),
			"HNL":        decimal.RequireFromString("0.71"),
			"EUR":        decimal.RequireFromString("21.82"),
			"BRL":        decimal.RequireFromString("3.36"),
			"USD":        decimal.RequireFromString("18.75"),
		},
		domestic: []string{"MEX", "SIN", "MTY"},
	}
}

type tablesFile struct {
	Regions  map[string]Region  `yaml:"regions"`
	Rates    map[string]float64 `yaml:"rates"`
	Domestic []string           `yaml:"domestic"`
}

// LoadTables reads a YAML override file. Sections the file leaves out keep their
// default contents.
func LoadTables(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conversion tables: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes YAML conversion tables over the defaults.
func ParseTables(data []byte) (*Tables, error) {
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode conversion tables: %w", err)
	}

	t := DefaultTables()
	if len(f.Regions) > 0 {
		t.regions = make(map[string]Region, len(f.Regions))
		for block, region := range f.Regions {
			t.regions[normalizeCode(block)] = Region{
				Country:  strings.TrimSpace(region.Country),
				Currency: normalizeCode(region.Currency),
			}
		}
	}
	if len(f.Rates) > 0 {
		t.rates = map[string]decimal.Decimal{BaseCurrency: decimal.NewFromInt(1)}
		for currency, rate := range f.Rates {
			if rate <= 0 {
				return nil, fmt.Errorf("rate for %s must be positive, got %v", currency, rate)
			}
			t.rates[normalizeCode(currency)] = decimal.NewFromFloat(rate)
		}
	}
	if len(f.Domestic) > 0 {
		t.domestic = make([]string, 0, len(f.Domestic))
		for _, d := range f.Domestic {
			t.domestic = append(t.domestic, normalizeCode(d))
		}
	}
	return t, nil
}

// Region resolves a block code.
func (t *Tables) Region(block string) (Region, bool) {
	r, ok := t.regions[normalizeCode(block)]
	return r, ok
}

// Rate returns the base-currency value of one unit of currency.
func (t *Tables) Rate(currency string) (decimal.Decimal, bool) {
	r, ok := t.rates[normalizeCode(currency)]
	return r, ok
}

// Convert returns amount in the base currency rounded to cents.
func (t *Tables) Convert(block string, amount float64) (decimal.Decimal, Region, decimal.Decimal, error) {
	region, ok := t.Region(block)
	if !ok {
		return decimal.Zero, Region{}, decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownBlock, block)
	}
	rate, ok := t.Rate(region.Currency)
	if !ok {
		return decimal.Zero, region, decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, region.Currency)
	}
	return decimal.NewFromFloat(amount).Mul(rate).Round(2), region, rate, nil
}

// BaseAmount is the amount stored alongside a newly captured dispute. Domestic blocks
// already settle in the base currency; foreign blocks are converted; unknown blocks
// have no base amount.
func (t *Tables) BaseAmount(block string, amount float64) (float64, bool) {
	code := normalizeCode(block)
	if code == "" {
		return 0, false
	}
	for _, d := range t.domestic {
		if strings.Contains(code, d) {
			return amount, true
		}
	}
	converted, _, _, err := t.Convert(code, amount)
	if err != nil {
		return 0, false
	}
	return converted.InexactFloat64(), true
}

func normalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
