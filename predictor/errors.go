package predictor

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by ConfigError.
var (
	ErrUnknownPredictor = errors.New("unknown predictor")
	ErrArity            = errors.New("wrong number of parameters")
	ErrWidth            = errors.New("invalid width")
	ErrCounterInit      = errors.New("invalid initial counter state")
	ErrTooLarge         = errors.New("predictor state too large")
)

// ConfigError reports a predictor configuration that cannot be built.
type ConfigError struct {
	// Input is the configuration string or kind that was rejected.
	Input string
	// Reason describes what is wrong with it.
	Reason string
	// Err is one of the sentinel causes above.
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid predictor configuration %q: %s", e.Input, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configErrorf(input string, cause error, format string, args ...any) error {
	return &ConfigError{
		Input:  input,
		Reason: fmt.Sprintf(format, args...),
		Err:    cause,
	}
}
