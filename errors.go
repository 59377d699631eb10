package fabrica

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeGeneration ErrorType = "generation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeStore      ErrorType = "store"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes.
const (
	ErrCodeUnknownType      = "UNKNOWN_TYPE"
	ErrCodeGenerationFailed = "GENERATION_FAILED"
	ErrCodeInvalidConfig    = "INVALID_CONFIG"
	ErrCodePrefetchFailed   = "PREFETCH_FAILED"
	ErrCodeStoreFailed      = "STORE_FAILED"
)

// FabricaError is the unified error type for the generation engine.
type FabricaError struct {
	Type       ErrorType      `json:"type"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	EntityType string         `json:"entityType,omitempty"`
	Field      string         `json:"field,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Cause      error          `json:"-"`
}

func (e *FabricaError) Error() string {
	switch {
	case e.EntityType != "" && e.Field != "":
		return fmt.Sprintf("[%s:%s] %s.%s: %s", e.Type, e.Code, e.EntityType, e.Field, e.Message)
	case e.EntityType != "":
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.EntityType, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *FabricaError) Unwrap() error {
	return e.Cause
}

// WithCause attaches the underlying error.
func (e *FabricaError) WithCause(cause error) *FabricaError {
	e.Cause = cause
	return e
}

// WithField attaches field context.
func (e *FabricaError) WithField(field string) *FabricaError {
	e.Field = field
	return e
}

// WithDetail attaches a single detail value.
func (e *FabricaError) WithDetail(key string, value any) *FabricaError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NewFabricaError creates a new error with the given classification.
func NewFabricaError(errorType ErrorType, code, message string) *FabricaError {
	return &FabricaError{
		Type:    errorType,
		Code:    code,
		Message: message,
	}
}

// NewUnknownTypeError reports a schema lookup miss. Fatal for the subtree
// that requested the type; never retried.
func NewUnknownTypeError(typeName string) *FabricaError {
	return &FabricaError{
		Type:       ErrorTypeNotFound,
		Code:       ErrCodeUnknownType,
		Message:    fmt.Sprintf("entity type '%s' is not declared in the schema", typeName),
		EntityType: typeName,
	}
}

// NewGenerationError reports a classified content-backend failure for the
// given entity type and, optionally, a single field.
func NewGenerationError(entityType, field string, cause error) *FabricaError {
	return &FabricaError{
		Type:       ErrorTypeGeneration,
		Code:       ErrCodeGenerationFailed,
		Message:    "content generation failed",
		EntityType: entityType,
		Field:      field,
		Cause:      cause,
	}
}

// NewConfigError reports an invalid engine configuration.
func NewConfigError(message string) *FabricaError {
	return &FabricaError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeInvalidConfig,
		Message: message,
	}
}

// NewPrefetchError reports a failed related-context fetch.
func NewPrefetchError(path string, cause error) *FabricaError {
	return &FabricaError{
		Type:    ErrorTypeStore,
		Code:    ErrCodePrefetchFailed,
		Message: fmt.Sprintf("failed to prefetch context path '%s'", path),
		Field:   path,
		Cause:   cause,
	}
}

// IsUnknownTypeError checks whether err is a schema lookup miss.
func IsUnknownTypeError(err error) bool {
	var fe *FabricaError
	if errors.As(err, &fe) {
		return fe.Code == ErrCodeUnknownType
	}
	return false
}

// IsGenerationError checks whether err is a classified generation failure.
// The entity generator catches these and falls back to placeholder
// synthesis; the scalar field enricher lets them propagate.
func IsGenerationError(err error) bool {
	var fe *FabricaError
	if errors.As(err, &fe) {
		return fe.Code == ErrCodeGenerationFailed
	}
	return false
}
