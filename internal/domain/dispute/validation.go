package dispute

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

type ruleKind int

const (
	numeric ruleKind = iota
	alphanumeric
	decimalRange
)

type fieldRule struct {
	kind        ruleKind
	minLength   int
	maxLength   int
	exactLength []int
	min, max    float64
}

type processorRules struct {
	required []Field
	fields   map[Field]fieldRule
}

var (
	numericPattern      = regexp.MustCompile(`^\d+$`)
	alphanumericPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
)

var amountRange = fieldRule{kind: decimalRange, min: 0.01, max: 999999.99}

var rulesByProcessor = map[string]processorRules{
	"EFEVOO": {
		required: []Field{FieldProcessor, FieldTransactionID, FieldAmount, FieldSaleDate, FieldAuthorization},
		fields: map[Field]fieldRule{
			FieldTransactionID: {kind: numeric, minLength: 8, maxLength: 20},
			FieldAuthorization: {kind: alphanumeric, minLength: 6, maxLength: 12},
			FieldAmount:        amountRange,
			FieldCardNumber:    {kind: numeric, exactLength: []int{4, 6, 16}},
		},
	},
	"BSD": {
		required: []Field{FieldProcessor, FieldTransactionID, FieldAmount, FieldSaleDate, FieldCardNumber},
		fields: map[Field]fieldRule{
			FieldTransactionID: {kind: alphanumeric, minLength: 10, maxLength: 25},
			FieldCardNumber:    {kind: numeric, exactLength: []int{16}},
			FieldAmount:        amountRange,
		},
	},
	"CREDOMATIC": {
		required: []Field{FieldProcessor, FieldTransactionID, FieldAmount, FieldSaleDate, FieldAuthorization, FieldCardNumber},
		fields: map[Field]fieldRule{
			FieldTransactionID: {kind: alphanumeric, minLength: 12, maxLength: 30},
			FieldAuthorization: {kind: numeric, exactLength: []int{6, 8}},
			FieldCardNumber:    {kind: numeric, exactLength: []int{16}},
			FieldAmount:        amountRange,
		},
	},
}

// Issue is a processor rule a record does not satisfy.
type Issue struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Field, i.Message)
}

// Validate checks r against the field rules of its processor. Records of processors
// without rules always pass.
func Validate(r *Record) []Issue {
	rules, ok := rulesByProcessor[r.Processor]
	if !ok {
		return nil
	}

	var issues []Issue
	for _, f := range rules.required {
		if valueOf(r, f) == "" {
			issues = append(issues, Issue{Field: f, Message: "required"})
		}
	}

	// Stable order keeps messages reproducible.
	fields := make([]Field, 0, len(rules.fields))
	for f := range rules.fields {
		fields = append(fields, f)
	}
	slices.Sort(fields)

	for _, f := range fields {
		value := valueOf(r, f)
		if value == "" {
			continue
		}
		if msg := rules.fields[f].check(value); msg != "" {
			issues = append(issues, Issue{Field: f, Message: msg})
		}
	}
	return issues
}

func valueOf(r *Record, f Field) string {
	if f == FieldAmount {
		if r.Amount == 0 {
			return ""
		}
		return strconv.FormatFloat(r.Amount, 'f', -1, 64)
	}
	return strings.TrimSpace(r.Get(f))
}

func (rule fieldRule) check(value string) string {
	switch rule.kind {
	case numeric:
		if !numericPattern.MatchString(value) {
			return "must contain digits only"
		}
		if len(rule.exactLength) > 0 && !slices.Contains(rule.exactLength, len(value)) {
			lengths := make([]string, len(rule.exactLength))
			for i, l := range rule.exactLength {
				lengths[i] = strconv.Itoa(l)
			}
			return fmt.Sprintf("must have %s digits", strings.Join(lengths, " or "))
		}
	case alphanumeric:
		if !alphanumericPattern.MatchString(value) {
			return "only letters and digits are allowed"
		}
	case decimalRange:
		num, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "must be a valid number"
		}
		if num < rule.min {
			return fmt.Sprintf("minimum %v", rule.min)
		}
		if num > rule.max {
			return fmt.Sprintf("maximum %v", rule.max)
		}
		return ""
	}

	if rule.minLength > 0 && len(value) < rule.minLength {
		return fmt.Sprintf("minimum length %d", rule.minLength)
	}
	if rule.maxLength > 0 && len(value) > rule.maxLength {
		return fmt.Sprintf("maximum length %d", rule.maxLength)
	}
	return ""
}
