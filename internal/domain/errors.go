package domain

import "errors"

var (
	// ErrConfigNotFound is returned when the configuration file is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrNoBenchmarkData is returned when the benchmark has no bars in the
	// requested window, leaving the simulation clock with nothing to drive.
	ErrNoBenchmarkData = errors.New("no benchmark data")
)

// ConfigError reports a configuration mistake: a missing commission or
// slippage schedule would silently corrupt the ledger, so it is surfaced
// at driver construction instead of defaulted.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
