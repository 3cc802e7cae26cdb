package sniffer

import (
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/dispute"
)

// Vocabulary holds the header dictionaries the detectors recognize. A Vocabulary is
// built once and shared read-only by every detector.
type Vocabulary struct {
	// NarrativeMarkers identify a processor receipt email.
	NarrativeMarkers []string

	// TableMarkers are header tokens that identify a processor header table.
	TableMarkers []string
	// TableFields maps header table columns to fields. Columns mapped to "" are ignored.
	TableFields map[string]dispute.Field

	// VerticalHeaders is the exact header block of a vertical export, in order.
	VerticalHeaders []string
	VerticalFields  map[string]dispute.Field

	// General maps back-office labels and column names to fields. Used by key-value
	// blocks and by header table columns the table dictionary does not cover.
	General map[string]dispute.Field
}

// DefaultVocabulary returns the dictionaries for the CREDOMATIC, EFEVOO and BSD layouts
// and the back-office sheet labels.
func DefaultVocabulary() *Vocabulary {
	table := map[string]dispute.Field{
		"ID":                     dispute.FieldTransactionID,
		"FOLIO":                  dispute.FieldTransactionID,
		"CLIENTE":                dispute.FieldMerchantName,
		"SUCURSAL":               dispute.FieldBranch,
		"NÚMERO DE TARJETA":      dispute.FieldCardNumber,
		"NUMERO DE TARJETA":      dispute.FieldCardNumber,
		"MÉTODO DE PAGO":         dispute.FieldProcessor,
		"METODO DE PAGO":         dispute.FieldProcessor,
		"FECHA Y HORA":           dispute.FieldSaleDate,
		"MONTO":                  dispute.FieldAmount,
		"NÚMERO DE AUTORIZACIÓN": dispute.FieldAuthorization,
		"NUMERO DE AUTORIZACION": dispute.FieldAuthorization,
		"AFILIACIÓN":             dispute.FieldAffiliationID,
		"AFILIACION":             dispute.FieldAffiliationID,
		"MARCA DE TARJETA":       "",
		"TIPO DE TARJETA":        "",
		"PRODUCTO":               "",
	}

	general := map[string]dispute.Field{
		"ID":                           dispute.FieldTransactionID,
		"FOLIO":                        dispute.FieldTransactionID,
		"NÚMERO DE TARJETA":            dispute.FieldCardNumber,
		"NUMERO DE TARJETA":            dispute.FieldCardNumber,
		"MÉTODO DE PAGO":               dispute.FieldProcessor,
		"METODO DE PAGO":               dispute.FieldProcessor,
		"FECHA Y HORA":                 dispute.FieldSaleDate,
		"NÚMERO DE AUTORIZACIÓN":       dispute.FieldAuthorization,
		"NUMERO DE AUTORIZACION":       dispute.FieldAuthorization,
		"AFILIACIÓN":                   dispute.FieldAffiliationID,
		"AFILIACION":                   dispute.FieldAffiliationID,
		"PROCESADOR":                   dispute.FieldProcessor,
		"AÑO":                          dispute.FieldYear,
		"MES PETICIÓN":                 dispute.FieldRequestMonth,
		"MES PETICION":                 dispute.FieldRequestMonth,
		"MES_PETICION":                 dispute.FieldRequestMonth,
		"EUROSKIN":                     dispute.FieldEuroskin,
		"ID DEL COMERCIO / AFILIACIÓN": dispute.FieldAffiliationID,
		"ID DEL COMERCIO":              dispute.FieldAffiliationID,
		"ID_DEL_COMERCIO_AFILIACION":   dispute.FieldAffiliationID,
		"ID DE TRANSACCION":            dispute.FieldTransactionID,
		"ID_DE_TRANSACCION":            dispute.FieldTransactionID,
		"NOMBRE DEL COMERCIO":          dispute.FieldMerchantName,
		"NOMBRE_DEL_COMERCIO":          dispute.FieldMerchantName,
		"FECHA VENTA":                  dispute.FieldSaleDate,
		"FECHA_VENTA":                  dispute.FieldSaleDate,
		"MONTO":                        dispute.FieldAmount,
		"NUM. DE TARJETA":              dispute.FieldCardNumber,
		"NUM_DE_TARJETA":               dispute.FieldCardNumber,
		"AUTORIZACION":                 dispute.FieldAuthorization,
		"CLIENTE":                      dispute.FieldClientName,
		"VENDEDORA":                    dispute.FieldSellerName,
		"SUCURSAL":                     dispute.FieldBranch,
		"FECHA CONTRATO":               dispute.FieldContractDate,
		"FECHA_CONTRATO":               dispute.FieldContractDate,
		"PAQUETE":                      dispute.FieldPackage,
		"BLOQUE":                       dispute.FieldBlockCode,
		"FECHA DE PETICION":            dispute.FieldRequestDate,
		"FECHA_DE_PETICION":            dispute.FieldRequestDate,
		"FECHA DE RESPUESTA":           dispute.FieldResponseDate,
		"FECHA_DE_RESPUESTA":           dispute.FieldResponseDate,
		"COMENTARIOS":                  dispute.FieldComments,
		"CAPTURA CC":                   dispute.FieldCaptureStatus,
		"CAPTURA_CC":                   dispute.FieldCaptureStatus,
		"PRODUCTO":                     "",
	}

	return &Vocabulary{
		NarrativeMarkers: []string{"DATOS DE LA TRANSACCIÓN", "No. caso:", "Afiliado Pagador:"},
		// The unaccented AFILIACION heads the vertical export and is left out.
		TableMarkers: []string{
			"ID", "FOLIO", "CLIENTE", "SUCURSAL",
			"NÚMERO DE TARJETA", "MARCA DE TARJETA", "TIPO DE TARJETA", "MÉTODO DE PAGO",
			"FECHA Y HORA", "MONTO", "NÚMERO DE AUTORIZACIÓN", "AFILIACIÓN",
		},
		TableFields: table,
		VerticalHeaders: []string{
			"AFILIACION",
			"NOMBRE DEL COMERCIO",
			"BIN TARJETA",
			"TARJETA",
			"FECHA VENTA",
			"HORA",
			"IMPORTE",
			"AUTORIZACION",
			"FECHA CONTRACARGO",
			"REFERENCIA",
		},
		VerticalFields: map[string]dispute.Field{
			"AFILIACION":          dispute.FieldAffiliationID,
			"NOMBRE DEL COMERCIO": dispute.FieldMerchantName,
			"TARJETA":             dispute.FieldCardNumber,
			"FECHA VENTA":         dispute.FieldSaleDate,
			"IMPORTE":             dispute.FieldAmount,
			"AUTORIZACION":        dispute.FieldAuthorization,
			"REFERENCIA":          dispute.FieldTransactionID,
		},
		General: general,
	}
}
