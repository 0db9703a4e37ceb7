package generation

import (
	"net/http"
	"strings"
)

// Category is the stable machine-readable failure code of a run.
type Category string

const (
	CategoryValidation           Category = "validation_error"
	CategoryUnauthorized         Category = "unauthorized"
	CategoryReconciliationFailed Category = "account_reconciliation_failed"
	CategoryInsufficientCredits  Category = "insufficient_credits"
	CategoryExtractionDegraded   Category = "extraction_degraded"
	CategorySynthesisFailed      Category = "synthesis_failed"
	CategoryPersistenceFailed    Category = "persistence_failed"
	CategoryCreditFinalization   Category = "credit_finalization_failed"
)

// HTTPStatus maps a fatal category to its response status.
func (c Category) HTTPStatus() int {
	switch c {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryUnauthorized:
		return http.StatusUnauthorized
	case CategoryInsufficientCredits:
		return http.StatusPaymentRequired
	case CategorySynthesisFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FieldIssue describes one rejected input field.
type FieldIssue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Error is the failure returned by Run and carried by the terminal error event.
type Error struct {
	Category    Category
	Phase       Phase
	Message     string
	StorageCode string
	Fields      []FieldIssue
	Err         error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Category))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Details is the client-facing payload attached to error responses and events.
func (e *Error) Details() map[string]any {
	details := map[string]any{"category": string(e.Category)}
	if e.Phase != "" {
		details["phase"] = string(e.Phase)
	}
	if e.StorageCode != "" {
		details["storageCode"] = e.StorageCode
	}
	if len(e.Fields) > 0 {
		details["fields"] = e.Fields
	}
	return details
}
