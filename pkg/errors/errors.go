package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCategory classifies the failures a retention run can hit. This helps
// the scheduler decide whether a failed run is worth repeating early.
type ErrorCategory int

const (
	// ErrorStorage indicates filesystem failures such as permission denied
	// or I/O errors while unlinking or scanning segment files.
	ErrorStorage ErrorCategory = iota + 1

	// ErrorProvider indicates the metadata store could not list segment
	// files or retention policies (network, auth or decoding failures).
	ErrorProvider

	// ErrorPolicy indicates a retention policy is missing or carries
	// thresholds below the enforced minimums.
	ErrorPolicy

	// ErrorConfig indicates invalid process configuration.
	ErrorConfig
)

// String returns the string representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorStorage:
		return "storage"
	case ErrorProvider:
		return "provider"
	case ErrorPolicy:
		return "policy"
	case ErrorConfig:
		return "config"
	default:
		return "unknown"
	}
}

// RetentionError wraps an error with the operation and category it belongs to.
type RetentionError struct {
	Err       error
	Operation string
	Timestamp time.Time
	Category  ErrorCategory
}

// NewRetentionError stamps err with the current time.
func NewRetentionError(category ErrorCategory, operation string, err error) *RetentionError {
	return &RetentionError{Err: err, Operation: operation, Category: category, Timestamp: time.Now()}
}

func (e *RetentionError) Error() string {
	return fmt.Sprintf("[%v] %s: %v", e.Category, e.Operation, e.Err)
}

func (e *RetentionError) Unwrap() error {
	return e.Err
}

// IsRetryAble returns whether errors of this category can be retried.
func (e *RetentionError) IsRetryAble() bool {
	switch e.Category {
	case ErrorStorage:
		// Permissions or a busy disk may clear up by the next run.
		return true
	case ErrorProvider:
		// The metadata store may be temporarily unreachable.
		return true
	case ErrorPolicy, ErrorConfig:
		// Needs an operator to fix the thresholds first.
		return false
	default:
		return false
	}
}

// AsRetentionError extracts a RetentionError from err, or returns nil.
func AsRetentionError(err error) *RetentionError {
	var re *RetentionError
	if errors.As(err, &re) {
		return re
	}
	return nil
}
