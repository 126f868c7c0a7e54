// Package domain defines core types, interfaces, and errors for the synthetic
// data platform.
package domain

import "fmt"

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ErrNotFound builds a NotFoundError from a format string.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// AccessDeniedError reports insufficient permissions.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ErrAccessDenied builds an AccessDeniedError from a format string.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError reports invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrValidation builds a ValidationError from a format string.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a clash with existing state, such as a duplicate ID.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ErrConflict builds a ConflictError from a format string.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// DistributionInfeasibleError reports declared bounds that exclude
// effectively all probability mass of a distribution, detected after
// bounded rejection attempts.
type DistributionInfeasibleError struct {
	Message string
}

func (e *DistributionInfeasibleError) Error() string { return e.Message }

// ErrDistributionInfeasible builds a DistributionInfeasibleError from a
// format string.
func ErrDistributionInfeasible(format string, args ...interface{}) *DistributionInfeasibleError {
	return &DistributionInfeasibleError{Message: fmt.Sprintf(format, args...)}
}

// FormulaError reports a formula that failed to compile or evaluate.
type FormulaError struct {
	Message string
}

func (e *FormulaError) Error() string { return e.Message }

// ErrFormula builds a FormulaError from a format string.
func ErrFormula(format string, args ...interface{}) *FormulaError {
	return &FormulaError{Message: fmt.Sprintf(format, args...)}
}
