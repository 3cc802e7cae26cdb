package dispute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNaturalKey(t *testing.T) {
	tests := []struct {
		name          string
		transactionID string
		authorization string
		expected      string
	}{
		{"transaction id wins", "174206787168", "123456", "174206787168"},
		{"authorization fallback", "", "123456", "123456"},
		{"whitespace id falls back", "   ", "A1B2C3", "A1B2C3"},
		{"neither present", "", "", MissingKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveNaturalKey(tt.transactionID, tt.authorization))
		})
	}

	r := &Record{AuthorizationCode: "987654"}
	assert.Equal(t, "987654", r.NaturalKey())
}

func TestRecordGetSet(t *testing.T) {
	var r Record

	require.True(t, r.Set(FieldMerchantName, "CLINICA CENTRO"))
	require.True(t, r.Set(FieldBlockCode, "COL1"))
	assert.Equal(t, "CLINICA CENTRO", r.MerchantName)
	assert.Equal(t, "COL1", r.Get(FieldBlockCode))

	assert.False(t, r.Set(FieldAmount, "12"))
	assert.False(t, r.Set(Field("unknown"), "x"))
	assert.Equal(t, "", r.Get(Field("unknown")))
}

func TestParseCaptureStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"GANADA", StatusWon, true},
		{"perdida", StatusLost, true},
		{" en   proceso ", StatusInProcess, true},
		{"CERRADA", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCaptureStatus(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		assert.Equal(t, tt.expected, got, tt.input)
	}
}

func TestCanonicalProcessor(t *testing.T) {
	assert.Equal(t, "MERCADO PAGO", CanonicalProcessor("mercado  pago"))
	assert.Equal(t, "EFEVOO", CanonicalProcessor(" efevoo "))
	assert.Equal(t, "", CanonicalProcessor("ACME PAY"))
	assert.Equal(t, "", CanonicalProcessor(""))
}

func TestCanonicalFlag(t *testing.T) {
	assert.Equal(t, "true", CanonicalFlag("Sí"))
	assert.Equal(t, "true", CanonicalFlag("TRUE"))
	assert.Equal(t, "false", CanonicalFlag("no"))
	assert.Equal(t, "false", CanonicalFlag(""))
}

func TestValidate(t *testing.T) {
	t.Run("valid efevoo record", func(t *testing.T) {
		r := &Record{
			Processor:         "EFEVOO",
			TransactionID:     "12345678",
			AuthorizationCode: "ABC123",
			Amount:            150.5,
			SaleDate:          "2025-08-15",
			CardNumber:        "4111",
		}
		assert.Empty(t, Validate(r))
	})

	t.Run("efevoo rule violations", func(t *testing.T) {
		r := &Record{
			Processor:         "EFEVOO",
			TransactionID:     "12AB",
			AuthorizationCode: "ABC123",
			Amount:            1000000,
			SaleDate:          "2025-08-15",
			CardNumber:        "41111",
		}
		issues := Validate(r)
		require.Len(t, issues, 3)
		assert.Equal(t, FieldAmount, issues[0].Field)
		assert.Equal(t, FieldCardNumber, issues[1].Field)
		assert.Equal(t, "must have 4 or 6 or 16 digits", issues[1].Message)
		assert.Equal(t, FieldTransactionID, issues[2].Field)
	})

	t.Run("credomatic missing fields", func(t *testing.T) {
		r := &Record{Processor: "CREDOMATIC", TransactionID: "CASE12345678", Amount: 10}
		issues := Validate(r)
		var missing []Field
		for _, i := range issues {
			if i.Message == "required" {
				missing = append(missing, i.Field)
			}
		}
		assert.ElementsMatch(t, []Field{FieldSaleDate, FieldAuthorization, FieldCardNumber}, missing)
	})

	t.Run("processor without rules", func(t *testing.T) {
		assert.Nil(t, Validate(&Record{Processor: "STRIPE"}))
		assert.Nil(t, Validate(&Record{}))
	})
}
