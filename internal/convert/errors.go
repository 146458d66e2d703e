package convert

import (
	"errors"
	"fmt"
)

var (
	ErrConflictingStopOptions = errors.New("cannot add missing stops while stops are excluded")
	ErrNothingToConvert       = errors.New("nothing to convert: both stops and routes are excluded")
	ErrUnsupportedRouteType   = errors.New("unsupported route type")
)

// ConfigurationError reports invalid or contradictory options. It is returned
// before any feed data is processed.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Err.Error()
	}
	return fmt.Sprintf("invalid configuration for %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// SourceUnavailableError reports that existing map nodes could not be looked
// up for a stop. The run is aborted rather than treating the stop as unmatched.
type SourceUnavailableError struct {
	StopID string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("map node source unavailable while resolving stop %q: %v", e.StopID, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}
