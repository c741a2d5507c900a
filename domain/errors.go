package domain

import (
	"github.com/cockroachdb/errors"
)

// Class is the §7 error taxonomy: Validation, Admission, NotFound,
// Infrastructure, Fatal. Every domain error returned by the engine carries
// exactly one of these.
type Class uint8

const (
	ClassValidation Class = iota
	ClassAdmission
	ClassNotFound
	ClassInfrastructure
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassValidation:
		return "validation"
	case ClassAdmission:
		return "admission"
	case ClassNotFound:
		return "not_found"
	case ClassInfrastructure:
		return "infrastructure"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// DomainError is the structured error type every public operation returns
// instead of a bare error, so callers can branch on Class without string
// matching.
type DomainError struct {
	class  Class
	reason string
	cause  error
}

func (e *DomainError) Error() string {
	if e.cause != nil {
		return errors.Wrapf(e.cause, "%s: %s", e.class, e.reason).Error()
	}
	return e.class.String() + ": " + e.reason
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *DomainError) Unwrap() error { return e.cause }

// Class reports the error's taxonomy class.
func (e *DomainError) Class() Class { return e.class }

// Reason is the human-readable explanation surfaced to the caller.
func (e *DomainError) Reason() string { return e.reason }

func newDomainError(class Class, reason string) *DomainError {
	return &DomainError{class: class, reason: reason}
}

func wrapDomainError(class Class, cause error, reason string) *DomainError {
	return &DomainError{class: class, reason: reason, cause: cause}
}

// Validation-class sentinels (§7, §4.3 edge cases).
var (
	ErrZeroAmount          = newDomainError(ClassValidation, "base amount must be positive")
	ErrNegativePrice       = newDomainError(ClassValidation, "price must not be negative")
	ErrMissingLimitPrice   = newDomainError(ClassValidation, "limit price required for Limit/StopLimit orders")
	ErrMissingTriggerPrice = newDomainError(ClassValidation, "trigger price required for Stop/StopLimit orders")
	ErrInstrumentMismatch  = newDomainError(ClassValidation, "order instrument does not match book instrument")
)

// Admission-class sentinels.
var (
	ErrOrderbookHalted = newDomainError(ClassAdmission, "orderbook is halted")
	ErrEngineStopped   = newDomainError(ClassAdmission, "engine is stopped")
	ErrEngineFaulted   = newDomainError(ClassAdmission, "engine instrument is faulted")
)

// NotFound-class sentinels.
var (
	ErrOrderNotFound            = newDomainError(ClassNotFound, "order not found")
	ErrDuplicateOrderID         = newDomainError(ClassNotFound, "duplicate order id")
	ErrInstrumentNotRegistered  = newDomainError(ClassNotFound, "instrument not registered")
)

// Infrastructure-class sentinels.
var (
	ErrTimeout     = newDomainError(ClassInfrastructure, "command submission timed out")
	ErrQueueClosed = newDomainError(ClassInfrastructure, "worker command queue is closed")
	ErrQueueFull   = newDomainError(ClassInfrastructure, "worker command queue is full")
)

// NewFatalError wraps a book/index invariant violation as a Fatal-class
// error. Workers that observe one must stop processing the affected
// instrument (§7).
func NewFatalError(cause error, reason string) *DomainError {
	return wrapDomainError(ClassFatal, cause, reason)
}

// IsClass reports whether err is a *DomainError of the given class.
func IsClass(err error, class Class) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.class == class
	}
	return false
}
