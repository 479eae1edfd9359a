// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrNoData           = errors.New("no data for symbol")
	ErrMalformedKey     = errors.New("malformed composite key")
	ErrLengthMismatch   = errors.New("field length mismatch")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrInsufficientData = errors.New("insufficient data for calculation")
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrDataNotFound     = errors.New("data not found")
	ErrDatabaseError    = errors.New("database error")
	ErrSectorNotFound   = errors.New("sector not found")
)

// MalformedKeyError is returned when a batch result key does not split into
// exactly three dot-delimited parts.
type MalformedKeyError struct {
	Key   string
	Parts int
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("malformed composite key %q: got %d parts, want 3 (<symbol>.<kind>.<field>)", e.Key, e.Parts)
}

// Is makes errors.Is(err, ErrMalformedKey) match.
func (e *MalformedKeyError) Is(target error) bool {
	return target == ErrMalformedKey
}

// NewMalformedKeyError creates a new MalformedKeyError.
func NewMalformedKeyError(key string, parts int) *MalformedKeyError {
	return &MalformedKeyError{Key: key, Parts: parts}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// NoData reports that symbol has no usable base KLINE data.
func NoData(symbol, message string) *DataError {
	return NewDataError("KLINE", symbol, message, ErrNoData)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Join wraps errors.Join.
func Join(errs ...error) error {
	return errors.Join(errs...)
}
