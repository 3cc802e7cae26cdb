// Package document classifies OCR text from scanned paperwork and extracts the fields
// stored for receipts and contracts.
package document

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Type is a kind of scanned document.
type Type string

const (
	TypeUnknown  Type = "unknown"
	TypeContract Type = "contrato"
	TypeReceipt  Type = "recibo"
)

// Score points, in tenths.
const (
	keywordPoints   = 1
	strongPoints    = 3
	structurePoints = 2
	maxPoints       = 10
	// A document must score above this to be classified.
	minPoints = 4
)

type structureCheck struct {
	name string
	ok   func(lower string) bool
}

type pattern struct {
	keywords   []string
	strong     []string
	structure  []structureCheck
	tieBreaker []string
}

func anyOf(res ...*regexp.Regexp) func(string) bool {
	return func(s string) bool {
		for _, re := range res {
			if re.MatchString(s) {
				return true
			}
		}
		return false
	}
}

func allOf(res ...*regexp.Regexp) func(string) bool {
	return func(s string) bool {
		for _, re := range res {
			if !re.MatchString(s) {
				return false
			}
		}
		return true
	}
}

var mustRE = regexp.MustCompile

var patterns = map[Type]pattern{
	TypeContract: {
		keywords: []string{
			"FOLIO:", "Nombre del Cliente", "Tratamiento", "Tarjeta de credito",
			"Costo total del servicio", "Anticipo", "Saldo restante",
			"pagos por cubrir", "DIRECCIÓN SUCURSAL DONDE CONTRATO",
			"CONTRATO", "PRESTACION DE SERVICIOS",
			"CONTRATO DE PRESTACION DE SERVICIOS", "El presente contrato",
			"días del mes de", "del año", "se celebra",
		},
		strong: []string{
			"Nombre del Cliente", "Costo total del servicio",
			"Saldo restante a cubrir", "pagos por cubrir", "CONTRATO DE PRESTACION DE SERVICIOS",
			"El presente contrato se celebra", "prestacion de servicios",
		},
		structure: []structureCheck{
			{"multipleClients", anyOf(mustRE(`cliente \d+:`), mustRE(`nombre del cliente`))},
			{"treatmentDetails", anyOf(mustRE(`tratamiento`), mustRE(`sesiones`))},
			{"paymentPlan", anyOf(mustRE(`pagos por cubrir`), mustRE(`saldo restante`))},
			{"contractAddress", anyOf(mustRE(`dirección sucursal`))},
			{"contractFormat", anyOf(mustRE(`contrato de prestacion de servicios`), mustRE(`el presente contrato`))},
			{"datePhrase", anyOf(mustRE(`a los \d+ días del mes de`), mustRE(`del año \d+`))},
			{"serviceDescription", anyOf(mustRE(`prestacion de servicios`), mustRE(`se celebra`))},
		},
		tieBreaker: []string{"CONTRATO DE PRESTACION DE SERVICIOS", "El presente contrato", "prestacion de servicios", "se celebra"},
	},
	TypeReceipt: {
		keywords: []string{
			"Recibo de Pago", "Recibí de", "la cantidad de $", "por concepto de",
			"Forma de Pago:", "TRANSACCION APROBADA", "Tarjeta:", "Autorización:",
			"Orden:", "Comercio:", "ARQC:", "SI REQUIERE FACTURA",
			"Folio Factura:", "LASER CENTER", "ANTICIPO A PAQUETE NUEVO", "Folio:", "Fecha:", "Firma",
		},
		strong: []string{
			"Recibo de Pago", "Recibí de", "TRANSACCION APROBADA",
			"Folio Factura:", "LASER CENTER", "ANTICIPO A PAQUETE NUEVO",
		},
		structure: []structureCheck{
			{"singlePayment", allOf(mustRE(`recibí de`), mustRE(`la cantidad de`))},
			{"transactionDetails", allOf(mustRE(`transaccion aprobada`), mustRE(`autorización`))},
			{"invoiceInfo", allOf(mustRE(`folio factura`), mustRE(`requiere factura`))},
			{"receiptFormat", allOf(mustRE(`recibo de pago`), mustRE(`laser center`))},
			{"folio", anyOf(mustRE(`folio:\s*[a-z]\d{2}-\d+`))},
		},
		tieBreaker: []string{"Recibo de Pago", "Recibí de", "la cantidad de $", "TRANSACCION APROBADA"},
	},
}

// Analysis is the evidence gathered for one document type.
type Analysis struct {
	Score     float64  `json:"score"`
	Keywords  []string `json:"keywords"`
	Strong    []string `json:"strongIndicators"`
	Structure []string `json:"structure"`

	points int
}

// Classification is the outcome of Classify.
type Classification struct {
	Type       Type               `json:"type"`
	Confidence float64            `json:"confidence"`
	Scores     map[Type]*Analysis `json:"scores"`
}

// Classify scores text against every known document type. Text scoring 0.4 or less
// for its best type is TypeUnknown.
func Classify(text string) Classification {
	lower := strings.ToLower(norm.NFC.String(text))

	out := Classification{Type: TypeUnknown, Scores: make(map[Type]*Analysis, len(patterns))}
	if strings.TrimSpace(lower) == "" {
		return out
	}

	for t, p := range patterns {
		out.Scores[t] = analyze(lower, p)
	}

	contract, receipt := out.Scores[TypeContract], out.Scores[TypeReceipt]
	best := TypeContract
	switch {
	case receipt.points > contract.points:
		best = TypeReceipt
	case receipt.points == contract.points:
		hasContract := containsAny(contract.Keywords, patterns[TypeContract].tieBreaker) ||
			containsAny(contract.Strong, patterns[TypeContract].tieBreaker)
		hasReceipt := containsAny(receipt.Keywords, patterns[TypeReceipt].tieBreaker) ||
			containsAny(receipt.Strong, patterns[TypeReceipt].tieBreaker)
		if hasReceipt && !hasContract {
			best = TypeReceipt
		}
	}

	out.Confidence = out.Scores[best].Score
	if out.Scores[best].points > minPoints {
		out.Type = best
	}
	return out
}

func analyze(lower string, p pattern) *Analysis {
	a := &Analysis{Keywords: []string{}, Strong: []string{}, Structure: []string{}}
	for _, k := range p.keywords {
		if strings.Contains(lower, strings.ToLower(k)) {
			a.Keywords = append(a.Keywords, k)
			a.points += keywordPoints
		}
	}
	for _, s := range p.strong {
		if strings.Contains(lower, strings.ToLower(s)) {
			a.Strong = append(a.Strong, s)
			a.points += strongPoints
		}
	}
	for _, c := range p.structure {
		if c.ok(lower) {
			a.Structure = append(a.Structure, c.name)
			a.points += structurePoints
		}
	}
	a.points = min(a.points, maxPoints)
	a.Score = float64(a.points) / 10
	return a
}

func containsAny(found, wanted []string) bool {
	for _, f := range found {
		for _, w := range wanted {
			if f == w {
				return true
			}
		}
	}
	return false
}
