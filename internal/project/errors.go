package project

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("project not found")
	ErrEmpty       = errors.New("project config is empty")
	ErrParse       = errors.New("project config is not valid JSON")
	ErrIO          = errors.New("project i/o failed")
	ErrExists      = errors.New("project already exists")
	ErrInvalidName = errors.New("invalid project name")
	ErrNotImage    = errors.New("file is not a supported image")
)

// Error describes a failed store operation. Kind is one of the sentinels
// above and Err, when set, is the underlying cause; errors.Is matches both.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opError(op, path string, kind, err error) error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}
