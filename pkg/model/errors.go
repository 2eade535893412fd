package model

import "fmt"

// ObservationError reports a failed read of queue or fleet state. A tick
// whose observation fails is abandoned wholesale: decisions are never made
// against a partial snapshot.
type ObservationError struct {
	Source string // "drone" or "machines"
	Op     string // logical operation, e.g. "backlog", "alive"
	Err    error
}

func (e *ObservationError) Error() string {
	return fmt.Sprintf("observe %s %s: %v", e.Source, e.Op, e.Err)
}

func (e *ObservationError) Unwrap() error { return e.Err }

// ActuationError reports a failed start or stop of a specific node. The
// command did not provably take effect, so the node is not marked pending
// and the next tick may retry it.
type ActuationError struct {
	Node Node
	Op   string // "start" or "stop"
	Err  error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("%s node %s: %v", e.Op, e.Node, e.Err)
}

func (e *ActuationError) Unwrap() error { return e.Err }

// ErrorCode represents a structured API error code.
type ErrorCode string

const (
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the status API.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource string) *APIError {
	return &APIError{Code: ErrNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewInternalError creates an INTERNAL_ERROR APIError.
func NewInternalError(msg string) *APIError {
	return &APIError{Code: ErrInternal, Message: msg}
}
