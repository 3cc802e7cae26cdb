// Package schema maps spreadsheet headers to table columns and coerces cell values to
// the declared column types before they are written.
package schema

import (
	"errors"
	"regexp"
	"strings"
)

// ColumnType is the storage type a column's values are coerced to.
type ColumnType int

const (
	Untyped ColumnType = iota
	Varchar
	Text
	Date
	Decimal
)

func (t ColumnType) String() string {
	switch t {
	case Varchar:
		return "VARCHAR"
	case Text:
		return "TEXT"
	case Date:
		return "DATE"
	case Decimal:
		return "DECIMAL"
	}
	return "UNTYPED"
}

var ErrUnknownTable = errors.New("unknown table")

// Table describes a writable table: how sheet headers name its columns and what
// type each column holds.
type Table struct {
	Name    string
	Headers map[string]string
	Columns map[string]ColumnType
	// ConflictTarget optionally names the unique index used to skip duplicates.
	ConflictTarget []string
}

// Registry indexes tables by name. A Registry is built at startup and read-only after.
type Registry map[string]*Table

// DefaultRegistry returns the tables spreadsheets may be imported into.
func DefaultRegistry() Registry {
	disputes := &Table{
		Name: "aclaraciones",
		Headers: map[string]string{
			"PROCESADOR":                   "procesador",
			"AÑO":                          "año",
			"MES PETICIÓN":                 "mes_peticion",
			"EUROSKIN":                     "euroskin",
			"ID DEL COMERCIO / AFILIACIÓN": "id_del_comercio_afiliacion",
			"NOMBRE DEL COMERCIO":          "nombre_del_comercio",
			"ID DE TRANSACCION":            "id_de_transaccion",
			"FECHA VENTA":                  "fecha_venta",
			"MONTO":                        "monto",
			"NUM. DE TARJETA":              "num_de_tarjeta",
			"AUTORIZACION":                 "autorizacion",
			"CLIENTE":                      "cliente",
			"VENDEDORA":                    "vendedora",
			"SUCURSAL":                     "sucursal",
			"FECHA CONTRATO":               "fecha_contrato",
			"PAQUETE":                      "paquete",
			"BLOQUE":                       "bloque",
			"FECHA DE PETICION":            "fecha_de_peticion",
			"FECHA DE RESPUESTA":           "fecha_de_respuesta",
			"COMENTARIOS":                  "comentarios",
			"CAPTURA CC":                   "captura_cc",
			"MONTO MNX":                    "monto_mnx",
		},
		Columns: map[string]ColumnType{
			"procesador":                 Varchar,
			"año":                        Varchar,
			"mes_peticion":               Varchar,
			"euroskin":                   Varchar,
			"id_del_comercio_afiliacion": Varchar,
			"nombre_del_comercio":        Varchar,
			"id_de_transaccion":          Varchar,
			"fecha_venta":                Date,
			"monto":                      Decimal,
			"num_de_tarjeta":             Varchar,
			"autorizacion":               Varchar,
			"cliente":                    Varchar,
			"vendedora":                  Varchar,
			"sucursal":                   Varchar,
			"fecha_contrato":             Date,
			"paquete":                    Varchar,
			"bloque":                     Varchar,
			"fecha_de_peticion":          Date,
			"fecha_de_respuesta":         Date,
			"comentarios":                Text,
			"captura_cc":                 Varchar,
			"monto_mnx":                  Decimal,
		},
	}

	return Registry{disputes.Name: disputes}
}

// With returns a copy of r that also holds t.
func (r Registry) With(t *Table) Registry {
	out := make(Registry, len(r)+1)
	for name, table := range r {
		out[name] = table
	}
	out[t.Name] = t
	return out
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// FallbackColumnName derives a column name from a header with no dictionary entry.
func FallbackColumnName(header string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(header), "_")
}
