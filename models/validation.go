package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FieldError is a single violation tied to the field that caused it
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every violation found on a record.
// A record may only be persisted when its ValidationErrors is empty.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a violation for field
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, FieldError{Field: field, Message: message})
}

// Has reports whether field has at least one violation
func (v ValidationErrors) Has(field string) bool {
	for _, fe := range v {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Fields groups messages by field name for API responses
func (v ValidationErrors) Fields() map[string][]string {
	out := make(map[string][]string, len(v))
	for _, fe := range v {
		out[fe.Field] = append(out[fe.Field], fe.Message)
	}
	return out
}

// Err returns nil when there are no violations, so callers can write
// `if err := rec.Validate().Err(); err != nil`.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func checkNonNegative(errs *ValidationErrors, field string, d decimal.NullDecimal) {
	if d.Valid && d.Decimal.IsNegative() {
		errs.Add(field, "must not be negative")
	}
}
