package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/artisanhub/backend/internal/models"
	"github.com/lib/pq"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("transaction not found")
	ErrVersionConflict   = errors.New("transaction version conflict")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// ValidationError lists the offending fields by their JSON name
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func newFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError wraps a store failure without altering it
type PersistenceError struct {
	Op   string
	Code string
	Err  error
}

func newPersistenceError(op string, err error) *PersistenceError {
	pe := &PersistenceError{Op: op, Err: err}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		pe.Code = string(pqErr.Code)
	}
	return pe
}

func (e *PersistenceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %v (sqlstate %s)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type ConflictError struct {
	ID       string
	Expected int
	Actual   int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("transaction %s: expected version %d, found %d", e.ID, e.Expected, e.Actual)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

type TransitionError struct {
	From models.TransactionStatus
	To   models.TransactionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("status transition %s -> %s not allowed", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
