package domain

import "fmt"

// Error codes shared by every error type the HTTP layer knows how to render.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeNotFound     = "NOT_FOUND"
	CodeForbidden    = "FORBIDDEN"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_TRANSITION"
)

// CodedError is implemented by errors that carry a stable machine-readable code.
type CodedError interface {
	error
	Code() string
}

// DetailedError is implemented by errors that carry extra response fields.
type DetailedError interface {
	error
	Details() map[string]interface{}
}

// ValidationError indicates malformed or missing input.
type ValidationError struct {
	Message string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func (e *ValidationError) Error() string { return e.Message }

// Code returns the error code.
func (e *ValidationError) Code() string { return CodeValidation }

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// Code returns the error code.
func (e *NotFoundError) Code() string { return CodeNotFound }

// ForbiddenError indicates the caller may not act on the resource.
type ForbiddenError struct {
	Message string
}

// NewForbiddenError creates a new ForbiddenError.
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func (e *ForbiddenError) Error() string { return e.Message }

// Code returns the error code.
func (e *ForbiddenError) Code() string { return CodeForbidden }

// UnauthorizedError indicates a missing or invalid credential.
type UnauthorizedError struct {
	Message string
}

// NewUnauthorizedError creates a new UnauthorizedError.
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func (e *UnauthorizedError) Error() string { return e.Message }

// Code returns the error code.
func (e *UnauthorizedError) Code() string { return CodeUnauthorized }

// ConflictError indicates a write lost an optimistic-locking race.
type ConflictError struct {
	Message string
}

// NewConflictError creates a new ConflictError.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func (e *ConflictError) Error() string { return e.Message }

// Code returns the error code.
func (e *ConflictError) Code() string { return CodeConflict }

// InvalidStateError indicates an illegal state-machine transition.
type InvalidStateError struct {
	From string
	To   string
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(from, to string) *InvalidStateError {
	return &InvalidStateError{From: from, To: to}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// Code returns the error code.
func (e *InvalidStateError) Code() string { return CodeInvalidState }
