package nodes

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is; the concrete errors carry details.
var (
	// ErrInvalidPredicate reports WHERE input that matches no recognized shape.
	ErrInvalidPredicate = errors.New("invalid predicate")

	// ErrUnsupportedValue reports a value the normalizer cannot represent.
	ErrUnsupportedValue = errors.New("unsupported value type")

	// ErrEmptyIdentifier reports an empty table or column name.
	ErrEmptyIdentifier = errors.New("empty identifier")
)

// PredicateError is returned when WHERE input cannot be resolved into
// predicates.
type PredicateError struct {
	Input  any
	Reason string
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("sqlupdate: %s: %s (input %T)", ErrInvalidPredicate, e.Reason, e.Input)
}

func (e *PredicateError) Unwrap() error { return ErrInvalidPredicate }

// TypeError is returned by the value normalizer for unsupported shapes.
// Err holds the cause when a driver.Valuer failed.
type TypeError struct {
	Value any
	While string
	Err   error
}

func (e *TypeError) Error() string {
	msg := fmt.Sprintf("sqlupdate: %s %T", ErrUnsupportedValue, e.Value)
	if e.While != "" {
		msg += " while " + e.While
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUnsupportedValue}
	}
	return []error{ErrUnsupportedValue, e.Err}
}

func invalidPredicate(input any, format string, args ...any) error {
	return &PredicateError{Input: input, Reason: fmt.Sprintf(format, args...)}
}
