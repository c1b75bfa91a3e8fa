package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes failures of the revision engines.
type ErrorCode string

const (
	// ErrCodeNotFound indicates an unknown contract, rate or revision id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeNoDraft indicates a submit or draft update on entities with no
	// draft revision.
	ErrCodeNoDraft ErrorCode = "NO_DRAFT"

	// ErrCodeAlreadyUnlocked indicates an unlock of an entity whose latest
	// revision is already a draft.
	ErrCodeAlreadyUnlocked ErrorCode = "ALREADY_UNLOCKED"

	// ErrCodeUnsubmittedDependency indicates a contract submission whose
	// draft links name a rate that has never been submitted.
	ErrCodeUnsubmittedDependency ErrorCode = "UNSUBMITTED_DEPENDENCY"

	// ErrCodeProgrammingError indicates stored data that violates an
	// invariant the engines maintain.
	ErrCodeProgrammingError ErrorCode = "PROGRAMMING_ERROR"

	// ErrCodeInvalidArgument indicates a malformed request.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error is returned by the revision engines for every domain failure.
// Store failures are wrapped plain errors instead.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the entity kind the IDs refer to, when known.
	Kind Kind

	// IDs lists the offending entity ids.
	IDs []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.IDs) > 0 {
		return fmt.Sprintf("%s: %s (%s %s)", e.Code, e.Message, strings.ToLower(string(e.Kind)), strings.Join(e.IDs, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the code of the first *Error in err's chain, or "" when
// there is none.
func CodeOf(err error) ErrorCode {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsNotFound returns true if err is a NOT_FOUND error.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

// IsNoDraft returns true if err is a NO_DRAFT error.
func IsNoDraft(err error) bool { return CodeOf(err) == ErrCodeNoDraft }

// IsAlreadyUnlocked returns true if err is an ALREADY_UNLOCKED error.
func IsAlreadyUnlocked(err error) bool { return CodeOf(err) == ErrCodeAlreadyUnlocked }

// IsUnsubmittedDependency returns true if err is an UNSUBMITTED_DEPENDENCY error.
func IsUnsubmittedDependency(err error) bool { return CodeOf(err) == ErrCodeUnsubmittedDependency }

// IsProgrammingError returns true if err is a PROGRAMMING_ERROR.
func IsProgrammingError(err error) bool { return CodeOf(err) == ErrCodeProgrammingError }

// IsInvalidArgument returns true if err is an INVALID_ARGUMENT error.
func IsInvalidArgument(err error) bool { return CodeOf(err) == ErrCodeInvalidArgument }

// NewNotFoundError creates a NOT_FOUND error for the given ids.
func NewNotFoundError(kind Kind, ids ...string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", strings.ToLower(string(kind))),
		Kind:    kind,
		IDs:     ids,
	}
}

// NewNoDraftError creates a NO_DRAFT error listing every id without a draft.
func NewNoDraftError(kind Kind, ids ...string) *Error {
	return &Error{
		Code:    ErrCodeNoDraft,
		Message: "no draft revision to submit",
		Kind:    kind,
		IDs:     ids,
	}
}

// NewAlreadyUnlockedError creates an ALREADY_UNLOCKED error.
func NewAlreadyUnlockedError(kind Kind, id string) *Error {
	return &Error{
		Code:    ErrCodeAlreadyUnlocked,
		Message: "latest revision is already a draft",
		Kind:    kind,
		IDs:     []string{id},
	}
}

// NewUnsubmittedDependencyError creates an UNSUBMITTED_DEPENDENCY error for
// rates that have no submitted revision.
func NewUnsubmittedDependencyError(rateIDs ...string) *Error {
	return &Error{
		Code:    ErrCodeUnsubmittedDependency,
		Message: "linked rate has never been submitted",
		Kind:    KindRate,
		IDs:     rateIDs,
	}
}

// NewProgrammingError creates a PROGRAMMING_ERROR.
func NewProgrammingError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeProgrammingError,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewInvalidArgumentError creates an INVALID_ARGUMENT error.
func NewInvalidArgumentError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}
