// Package errs holds the error kinds shared by the dictionary loaders and the
// analyzer.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure.
type Kind uint8

const (
	Open    Kind = iota + 1 // file missing or unreadable
	Size                    // file size does not match its layout
	Magic                   // bad magic number
	Version                 // unsupported dictionary version
	Corrupt                 // structurally plausible but inconsistent data
	Config                  // missing or invalid configuration
	Render                  // malformed output template
)

func (k Kind) String() string {
	switch k {
	case Open:
		return "open"
	case Size:
		return "size mismatch"
	case Magic:
		return "bad magic"
	case Version:
		return "bad version"
	case Corrupt:
		return "data corruption"
	case Config:
		return "configuration"
	case Render:
		return "render"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Sentinels for errors.Is. An *Error matches the sentinel of its kind.
var (
	ErrOpen    = &Error{Kind: Open}
	ErrSize    = &Error{Kind: Size}
	ErrMagic   = &Error{Kind: Magic}
	ErrVersion = &Error{Kind: Version}
	ErrCorrupt = &Error{Kind: Corrupt}
	ErrConfig  = &Error{Kind: Config}
	ErrRender  = &Error{Kind: Render}
)

// Error is the concrete error type of this module.
type Error struct {
	Kind Kind
	Path string // file or config key involved, may be empty
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg = msg + " " + e.Path
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Path == "" && t.Err == nil
}

// New creates an error of kind k with a formatted cause.
func New(k Kind, path string, format string, args ...interface{}) error {
	return &Error{Kind: k, Path: path, Err: errors.Errorf(format, args...)}
}

// Wrap attaches kind and path to err. A nil err yields nil.
func Wrap(k Kind, path string, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Path: path, Err: errors.Wrapf(err, format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
