package track

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyTrack marks a track with no qualifying points. It is a
	// warning condition: the pipeline still returns an empty result.
	ErrEmptyTrack = errors.New("track has no points with both elevation and time")

	// ErrInvalidPoint marks structurally invalid input to the merge stage.
	ErrInvalidPoint = errors.New("invalid track point")

	// ErrInvalidWindow is returned for malformed or inverted time windows.
	ErrInvalidWindow = errors.New("invalid time window")
)

// ParseError reports a log file that could not be read or decoded.
type ParseError struct {
	Path string
	// Line is the 1-based line of the offending element, or 0 if unknown.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	name := e.Path
	if name == "" {
		name = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d: %v", name, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
