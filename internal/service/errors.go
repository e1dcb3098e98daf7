package service

import (
	"errors"
	"fmt"

	"go-opname-ws/pkg/validator"
)

// Error classes. Specific errors wrap one of these so the HTTP layer can map
// them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrIntegrity    = errors.New("integrity error")
	ErrConflict     = errors.New("conflict")
)

var (
	ErrSessionNotFound  = fmt.Errorf("%w: opname session", ErrNotFound)
	ErrRecordNotFound   = fmt.Errorf("%w: product is not part of this opname session", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("%w: product", ErrNotFound)
	ErrPhotoNotFound    = fmt.Errorf("%w: photo", ErrNotFound)
	ErrSessionCompleted = fmt.Errorf("%w: opname session is already completed", ErrInvalidState)
	ErrSKUExists        = fmt.Errorf("%w: SKU already exists", ErrConflict)
)

// ValidationError rejects malformed input before any state changes
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// validate runs the struct validator and turns the first failure into a ValidationError
func validate(req interface{}) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return newValidationError(firstErr.FieldName(), fmt.Sprintf("failed on tag '%s'", firstErr.Tag))
	}
	return nil
}

func integrityError(err error) error {
	return fmt.Errorf("%w: %w", ErrIntegrity, err)
}
