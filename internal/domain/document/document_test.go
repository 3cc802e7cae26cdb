package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const receiptText = `EUROPIEL SINERGIA
LASER CENTER
Recibo de Pago
Folio: Q22-004512
Fecha: 03/09/2025
Recibí de MARIA LUISA HERNANDEZ la cantidad de $ 4,500.00
por concepto de ANTICIPO A PAQUETE NUEVO
Forma de Pago: TARJETA
Firma`

const contractText = `CONTRATO DE PRESTACION DE SERVICIOS
El presente contrato se celebra a los 28 días del mes de Agosto del año 2024
Nombre del Cliente 1: ANA SOFIA OLVERA PINEDA
Tratamiento: Axila 10 sesiones
Costo total del servicio $ 12,000.00
Saldo restante a cubrir en 6 pagos por cubrir`

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Type
	}{
		{"receipt", receiptText, TypeReceipt},
		{"contract", contractText, TypeContract},
		{"empty", "", TypeUnknown},
		{"weak evidence", "Fecha: 01/01/2025\nFirma", TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			assert.Equal(t, tt.want, got.Type)
			if tt.want != TypeUnknown {
				assert.Greater(t, got.Confidence, 0.4)
				assert.LessOrEqual(t, got.Confidence, 1.0)
			}
		})
	}
}

func TestClassify_ScoreIsCapped(t *testing.T) {
	text := strings.Repeat(receiptText+"\n", 3) + "TRANSACCION APROBADA\nAutorización: 123\nFolio Factura: 1\nSI REQUIERE FACTURA"
	got := Classify(text)
	assert.Equal(t, 1.0, got.Scores[TypeReceipt].Score)
}

func TestClassify_WeakScoresAdd(t *testing.T) {
	// Two keywords only: 0.2.
	got := Classify("Tarjeta: 4111\nOrden: 55")
	assert.Equal(t, TypeUnknown, got.Type)
	assert.InDelta(t, 0.2, got.Scores[TypeReceipt].Score, 1e-9)
	assert.ElementsMatch(t, []string{"Tarjeta:", "Orden:"}, got.Scores[TypeReceipt].Keywords)
}

func TestExtract_Receipt(t *testing.T) {
	f := Extract(receiptText, TypeReceipt)

	assert.Equal(t, "MARIA LUISA HERNANDEZ", f.ClientName)
	assert.Equal(t, "2025-09-03", f.Date)
	assert.Equal(t, 4500.0, f.Amount)
	assert.Equal(t, PaymentNewPackage, f.PaymentType)
	assert.Equal(t, "Q22-004512", f.Folio)
}

func TestExtract_ReceiptPartialPayment(t *testing.T) {
	text := "Recibí de JUAN PEREZ la cantidad de $1.250,50\npor concepto de abono mensual"
	f := Extract(text, TypeReceipt)

	assert.Equal(t, "JUAN PEREZ", f.ClientName)
	assert.Equal(t, 1250.5, f.Amount)
	assert.Equal(t, PaymentPartial, f.PaymentType)
	assert.Empty(t, f.Date)
}

func TestExtract_Contract(t *testing.T) {
	f := Extract(contractText, TypeContract)

	assert.Equal(t, "ANA SOFIA OLVERA PINEDA", f.ClientName)
	assert.Equal(t, "2024-08-28", f.Date)
	assert.Zero(t, f.Amount)
}

func TestExtract_Unknown(t *testing.T) {
	assert.Equal(t, Fields{}, Extract(receiptText, TypeUnknown))
}
