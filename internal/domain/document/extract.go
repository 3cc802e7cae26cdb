package document

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/normalizer"
)

// Payment types recorded for receipts.
const (
	PaymentNewPackage = "ANTICIPO A PAQUETE NUEVO"
	PaymentPartial    = "PAGO PARCIAL"
)

// Fields are the values pulled out of a classified document.
type Fields struct {
	ClientName  string  `json:"clientName"`
	Date        string  `json:"date"`
	Amount      float64 `json:"amount"`
	PaymentType string  `json:"paymentType"`
	Folio       string  `json:"folio"`
}

var (
	receivedFrom = []*regexp.Regexp{
		regexp.MustCompile(`(?i)recib[íio]?\s+de\s+([a-záéíóúñ][a-záéíóúñ\s]+?)\s+la\s+cantidad`),
		regexp.MustCompile(`(?i)recib[íio]?\s+de\s+([a-záéíóúñ][a-záéíóúñ\s]+?)\s*(?:[,:\-.]|$)`),
	}
	contractClient = []*regexp.Regexp{
		regexp.MustCompile(`(?i)nombre\s+d[eo][lt]?\s+cliente\s*1?[:\s]+([^\n\r]+)`),
		regexp.MustCompile(`(?i)cliente\s+1[:\s]+([a-záéíóúñ][a-záéíóúñ\s]+)`),
	}
	quantity    = regexp.MustCompile(`(?i)la\s+cantidad\s+de\s+\$\s*([\d.,]+)`)
	anyAmount   = regexp.MustCompile(`\$\s*([\d.,]+)`)
	shortDate   = regexp.MustCompile(`(?i)fecha:?\s*(\d{1,2}[/-]\d{1,2}[/-]\d{4})`)
	longDate    = regexp.MustCompile(`(?i)(\d{1,2})\s+(?:d[ií]as\s+)?de[lt]?\s+(?:mes\s+de\s+)?([a-z]+)\s+de[lt]?\s+(?:año\s+)?(\d{4})`)
	anyDate     = regexp.MustCompile(`\b(\d{1,2}[/-]\d{1,2}[/-]\d{4})\b`)
	concept     = regexp.MustCompile(`(?i)por\s+concepto\s+de\s+([^\n\r]+)`)
	folio       = regexp.MustCompile(`(?i)folio:\s*([a-z0-9-]+)`)
	nameNoise   = regexp.MustCompile(`[^\p{L}\s]`)
	nameEndings = regexp.MustCompile(`(?i)\s+(monto|cantidad|total|pesos|fecha|folio)$`)
)

// Extract pulls the stored fields for a document of type t. Fields that cannot be
// found are left empty.
func Extract(text string, t Type) Fields {
	text = norm.NFC.String(text)

	var f Fields
	switch t {
	case TypeReceipt:
		f.ClientName = firstName(text, receivedFrom)
		f.Amount = extractAmount(text)
		f.PaymentType = paymentType(text)
		if m := folio.FindStringSubmatch(text); m != nil {
			f.Folio = strings.ToUpper(m[1])
		}
	case TypeContract:
		f.ClientName = firstName(text, contractClient)
	default:
		return f
	}
	f.Date = extractDate(text)
	return f
}

func firstName(text string, res []*regexp.Regexp) string {
	for _, line := range strings.Split(text, "\n") {
		for _, re := range res {
			m := re.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil {
				continue
			}
			if name := cleanName(m[1]); name != "" {
				return name
			}
		}
	}
	return ""
}

func cleanName(raw string) string {
	name := nameNoise.ReplaceAllString(raw, " ")
	name = strings.Join(strings.Fields(name), " ")
	for {
		trimmed := nameEndings.ReplaceAllString(name, "")
		if trimmed == name {
			break
		}
		name = trimmed
	}
	// Single words are OCR fragments rather than client names.
	if len(strings.Fields(name)) < 2 {
		return ""
	}
	return strings.ToUpper(name)
}

func extractAmount(text string) float64 {
	if m := quantity.FindStringSubmatch(text); m != nil {
		return normalizer.NormalizeAmount(m[1])
	}
	if m := anyAmount.FindStringSubmatch(text); m != nil {
		return normalizer.NormalizeAmount(m[1])
	}
	return 0
}

func paymentType(text string) string {
	m := concept.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	c := strings.ToLower(m[1])
	if strings.Contains(c, "anticipo") || strings.Contains(c, "paquete") {
		return PaymentNewPackage
	}
	return PaymentPartial
}

var spanishMonths = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5, "junio": 6, "julio": 7,
	"agosto": 8, "septiembre": 9, "setiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
}

func extractDate(text string) string {
	for _, re := range []*regexp.Regexp{shortDate, anyDate} {
		if m := re.FindStringSubmatch(text); m != nil {
			if d := normalizer.NormalizeDate(m[1]); normalizer.IsCanonicalDate(d) {
				return d
			}
		}
	}
	if m := longDate.FindStringSubmatch(text); m != nil {
		if month, ok := spanishMonths[strings.ToLower(m[2])]; ok {
			d := normalizer.NormalizeDate(fmt.Sprintf("%s/%d/%s", m[1], month, m[3]))
			if normalizer.IsCanonicalDate(d) {
				return d
			}
		}
	}
	return ""
}
