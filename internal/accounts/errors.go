package accounts

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no account exists for the lookup key.
	ErrNotFound = errors.New("account not found")

	// ErrNoCredits is returned by ConsumeCredit when the conditional decrement
	// matched no row.
	ErrNoCredits = errors.New("no credits remaining")

	// ErrReconciliationFailed means the caller's account could neither be
	// found nor created.
	ErrReconciliationFailed = errors.New("account reconciliation failed")
)

// Constraint names a uniqueness rule on the accounts store.
type Constraint string

const (
	ConstraintIdentityKey Constraint = "identity_key"
	ConstraintEmail       Constraint = "email"
)

// ErrorKind classifies a storage failure.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindUniqueViolation
)

// StorageError is the typed failure every Repo implementation reports for
// writes. Code carries the backend error code (SQLSTATE for Postgres).
type StorageError struct {
	Kind       ErrorKind
	Constraint Constraint
	Code       string
	Err        error
}

func (e *StorageError) Error() string {
	if e.Kind == KindUniqueViolation {
		return fmt.Sprintf("unique violation on %s (code %s)", e.Constraint, e.Code)
	}
	if e.Err == nil {
		return "storage error (code " + e.Code + ")"
	}
	if e.Code == "" {
		return "storage error: " + e.Err.Error()
	}
	return fmt.Sprintf("storage error (code %s): %v", e.Code, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsUniqueViolation reports whether err is a unique violation on constraint.
func IsUniqueViolation(err error, constraint Constraint) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == KindUniqueViolation && se.Constraint == constraint
}

// StorageCode extracts the backend error code from err, if any.
func StorageCode(err error) string {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
