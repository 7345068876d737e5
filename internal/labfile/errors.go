package labfile

import (
	"errors"
	"fmt"
)

// ErrMissingMarker is wrapped by a ParseError when a section marker that
// the file format requires is absent
var ErrMissingMarker = errors.New("missing section marker")

// ParseError reports malformed instrument or calibration input. Line is
// 1-based, 0 when the error concerns the file as a whole.
type ParseError struct {
	File string
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	s := e.File
	if s == `` {
		s = `<input>`
	}
	if e.Line > 0 {
		s += fmt.Sprintf(":%d", e.Line)
	}
	s += `: ` + e.Msg
	if e.Err != nil {
		s += `: ` + e.Err.Error()
	}
	return s
}

func (e *ParseError) Unwrap() error { return e.Err }

// Errorf returns a ParseError for a line of file
func Errorf(file string, line int, err error, format string, a ...any) *ParseError {
	return &ParseError{File: file, Line: line, Msg: fmt.Sprintf(format, a...), Err: err}
}

// WithFile sets the file name of a ParseError that was produced by a
// reader that did not know it. Other errors are returned unchanged.
func WithFile(err error, file string) error {
	var pe *ParseError
	if errors.As(err, &pe) && pe.File == `` {
		pe.File = file
	}
	return err
}

// IOError reports a missing or unreadable file or directory
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string { return e.Path + `: ` + e.Err.Error() }

func (e *IOError) Unwrap() error { return e.Err }
