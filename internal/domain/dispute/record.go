// Package dispute defines the canonical dispute (aclaración) record shared by every
// ingestion path and by the currency conversion batch.
package dispute

import (
	"strings"
)

// Table is the relational table dispute records are persisted to.
const Table = "aclaraciones"

// Field names a canonical record attribute. Detectors emit raw values keyed by Field and
// the assembler turns them into a Record.
type Field string

const (
	FieldProcessor       Field = "processor"
	FieldYear            Field = "year"
	FieldRequestMonth    Field = "requestMonth"
	FieldEuroskin        Field = "isEuroskinFlag"
	FieldAffiliationID   Field = "merchantAffiliationId"
	FieldMerchantName    Field = "merchantName"
	FieldTransactionID   Field = "transactionId"
	FieldSaleDate        Field = "saleDate"
	FieldAmount          Field = "amount"
	FieldCardNumber      Field = "cardNumber"
	FieldAuthorization   Field = "authorizationCode"
	FieldClientName      Field = "clientName"
	FieldSellerName      Field = "sellerName"
	FieldBranch          Field = "branch"
	FieldContractDate    Field = "contractDate"
	FieldPackage         Field = "package"
	FieldBlockCode       Field = "blockCode"
	FieldRequestDate     Field = "requestDate"
	FieldResponseDate    Field = "responseDate"
	FieldComments        Field = "comments"
	FieldCaptureStatus   Field = "captureStatus"
	FieldAmountConverted Field = "amountInBaseCurrency"
)

// DateFields lists the record attributes holding YYYY-MM-DD dates.
var DateFields = []Field{FieldSaleDate, FieldContractDate, FieldRequestDate, FieldResponseDate}

// Record is one normalized dispute row.
type Record struct {
	Processor             string   `json:"processor"`
	Year                  string   `json:"year"`
	RequestMonth          string   `json:"requestMonth"`
	IsEuroskinFlag        string   `json:"isEuroskinFlag"`
	MerchantAffiliationID string   `json:"merchantAffiliationId"`
	MerchantName          string   `json:"merchantName"`
	TransactionID         string   `json:"transactionId"`
	SaleDate              string   `json:"saleDate"`
	Amount                float64  `json:"amount"`
	CardNumber            string   `json:"cardNumber"`
	AuthorizationCode     string   `json:"authorizationCode"`
	ClientName            string   `json:"clientName"`
	SellerName            string   `json:"sellerName"`
	Branch                string   `json:"branch"`
	ContractDate          string   `json:"contractDate"`
	Package               string   `json:"package"`
	BlockCode             string   `json:"blockCode"`
	RequestDate           string   `json:"requestDate"`
	ResponseDate          string   `json:"responseDate"`
	Comments              string   `json:"comments"`
	CaptureStatus         string   `json:"captureStatus"`
	AmountInBaseCurrency  *float64 `json:"amountInBaseCurrency,omitempty"`
}

// Get returns the string form of a textual field. Amount fields are not addressable
// through Get.
func (r *Record) Get(f Field) string {
	if p := r.textField(f); p != nil {
		return *p
	}
	return ""
}

// Set assigns a textual field. It reports false for unknown or numeric fields.
func (r *Record) Set(f Field, value string) bool {
	p := r.textField(f)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func (r *Record) textField(f Field) *string {
	switch f {
	case FieldProcessor:
		return &r.Processor
	case FieldYear:
		return &r.Year
	case FieldRequestMonth:
		return &r.RequestMonth
	case FieldEuroskin:
		return &r.IsEuroskinFlag
	case FieldAffiliationID:
		return &r.MerchantAffiliationID
	case FieldMerchantName:
		return &r.MerchantName
	case FieldTransactionID:
		return &r.TransactionID
	case FieldSaleDate:
		return &r.SaleDate
	case FieldCardNumber:
		return &r.CardNumber
	case FieldAuthorization:
		return &r.AuthorizationCode
	case FieldClientName:
		return &r.ClientName
	case FieldSellerName:
		return &r.SellerName
	case FieldBranch:
		return &r.Branch
	case FieldContractDate:
		return &r.ContractDate
	case FieldPackage:
		return &r.Package
	case FieldBlockCode:
		return &r.BlockCode
	case FieldRequestDate:
		return &r.RequestDate
	case FieldResponseDate:
		return &r.ResponseDate
	case FieldComments:
		return &r.Comments
	case FieldCaptureStatus:
		return &r.CaptureStatus
	}
	return nil
}

// CaptureStatus values recorded against a dispute.
const (
	StatusInProcess = "EN PROCESO"
	StatusWon       = "GANADA"
	StatusLost      = "PERDIDA"
)

// ParseCaptureStatus canonicalizes a status spelling. ok is false for unknown values.
func ParseCaptureStatus(raw string) (string, bool) {
	s := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	switch s {
	case StatusInProcess, StatusWon, StatusLost:
		return s, true
	}
	return "", false
}

// KnownProcessors are the payment processors disputes may be filed against.
var KnownProcessors = []string{
	"CREDOMATIC", "EFEVOO", "BSD", "VISANET", "STRIPE", "KUSHKI", "NETPAY",
	"PAYCODE", "CLIP", "BANCOLOMBIA", "CREDIBANCO", "TRANSBANK", "MERCADO PAGO", "SISTECREDITO",
}

// CanonicalProcessor returns the known processor matching raw, ignoring case and
// surrounding whitespace, or "" when raw names no known processor.
func CanonicalProcessor(raw string) string {
	s := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	for _, p := range KnownProcessors {
		if p == s {
			return p
		}
	}
	return ""
}

// CanonicalFlag maps yes/no spellings to "true" or "false". Unknown values are "false".
func CanonicalFlag(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "1", "si", "sí", "yes", "x":
		return "true"
	}
	return "false"
}
