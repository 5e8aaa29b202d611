package entity

import (
	"errors"
	"fmt"
)

// GenerationFailedMessage is the only message surfaced for provider failures.
const GenerationFailedMessage = "Error al generar la imagen"

// ConfigurationError reports a missing or invalid process setting, such as the
// provider credential.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Setting, e.Reason)
}

// GenerationError hides the provider failure behind a fixed message. The cause
// stays reachable through errors.Unwrap for logging.
type GenerationError struct {
	Cause error
}

func (e *GenerationError) Error() string {
	return GenerationFailedMessage
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// ValidationError reports an out-of-bounds or missing form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsGenerationError(err error) bool {
	var target *GenerationError
	return errors.As(err, &target)
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
