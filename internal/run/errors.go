package run

import (
	"errors"
	"fmt"
)

// RunError represents a failure that aborted a monitor run.
//
// The three categories mirror what can actually go wrong:
//   - Ingest: source unreachable or unparseable
//   - Validation: the ingested record set violates the snapshot invariant
//   - Persistence: a storage write failed before or during commit
//
// None of these are retried internally - retry policy belongs to the
// external scheduler triggering another run later.
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// RunID identifies the affected run.
	RunID string

	// Err is the underlying cause, if any.
	Err error
}

// RunErrorCode categorizes run failures.
type RunErrorCode string

const (
	// ErrCodeIngest indicates the source could not be fetched or parsed.
	ErrCodeIngest RunErrorCode = "INGEST_FAILED"

	// ErrCodeValidation indicates the ingested record set is invalid
	// (duplicate or empty identifiers).
	ErrCodeValidation RunErrorCode = "VALIDATION_FAILED"

	// ErrCodePersistence indicates a storage read or write failed.
	ErrCodePersistence RunErrorCode = "PERSISTENCE_FAILED"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RunID != "" {
		msg = fmt.Sprintf("%s (run=%s)", msg, e.RunID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *RunError) Unwrap() error { return e.Err }

// IsIngestError reports whether err is an ingest failure.
// Uses errors.As to handle wrapped errors.
func IsIngestError(err error) bool {
	var re *RunError
	return errors.As(err, &re) && re.Code == ErrCodeIngest
}

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool {
	var re *RunError
	return errors.As(err, &re) && re.Code == ErrCodeValidation
}

// IsPersistenceError reports whether err is a persistence failure.
func IsPersistenceError(err error) bool {
	var re *RunError
	return errors.As(err, &re) && re.Code == ErrCodePersistence
}

func newIngestError(runID string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeIngest,
		Message: "source ingestion failed",
		RunID:   runID,
		Err:     err,
	}
}

func newValidationError(runID string, err error) *RunError {
	return &RunError{
		Code:    ErrCodeValidation,
		Message: "ingested record set is invalid",
		RunID:   runID,
		Err:     err,
	}
}

func newPersistenceError(runID, op string, err error) *RunError {
	return &RunError{
		Code:    ErrCodePersistence,
		Message: op,
		RunID:   runID,
		Err:     err,
	}
}
