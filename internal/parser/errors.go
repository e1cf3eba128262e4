package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported indicates a file extension no registered parser accepts.
	ErrUnsupported = errors.New("unsupported file format")
	// ErrDecode indicates bytes were present but could not be decoded into a table.
	ErrDecode = errors.New("decode failed")

	errNoColumns = errors.New("no columns to parse from file")
)

// UnsupportedFormatError carries the rejected extension so the caller can show it.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == "" {
		return "unsupported file format: file has no extension"
	}
	return fmt.Sprintf("unsupported file format: %s", e.Ext)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupported }

// DecodeError wraps the underlying decoder failure.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("decode %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("decode: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
