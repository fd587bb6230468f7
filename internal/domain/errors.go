package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRecord      = errors.New("malformed record")
	ErrMissingField         = errors.New("missing required field")
	ErrConditionOutOfRange  = errors.New("technical condition must be between 1 and 5")
	ErrUnknownResourceType  = errors.New("unknown resource type")
	ErrUnknownWaterType     = errors.New("unknown water type")
	ErrInvalidPassportDate  = errors.New("invalid passport date")
	ErrCoordinatesOutOfBand = errors.New("coordinates out of range")
)

// ValidationError reports which field of a record was rejected and why.
type ValidationError struct {
	Field string
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s=%v: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
