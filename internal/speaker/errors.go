package speaker

import (
	"errors"
	"fmt"
)

// ErrInvalidSegment is returned by Load for a segment with a negative
// start or an end not after its start.
var ErrInvalidSegment = errors.New("invalid segment bounds")

// ParseError reports that a segment list could not be built from its
// source.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
