package document

import (
	"errors"
	"fmt"
)

var (
	ErrMissingVersion = errors.New("missing version field")
	ErrMissingData    = errors.New("missing image data")
)

// ParseError reports a board document that is malformed at the structural level.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse board: %v", e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// IOError reports a board file that could not be read or written.
type IOError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s board %s: %v", e.Op, e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }
