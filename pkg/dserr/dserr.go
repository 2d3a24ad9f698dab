// Package dserr holds the error kinds shared by the speechset core packages.
//
// Each core package re-exports these values (for example dataset.ErrNotFound
// and window.ErrInvalidArgument are the same error), so callers can test an
// error with errors.Is against whichever package they imported.
package dserr

import "errors"

var (
	// ErrInvalidArgument reports malformed or missing parameters.
	ErrInvalidArgument = errors.New("speechset: invalid argument")

	// ErrNotFound reports an unknown example id or label.
	ErrNotFound = errors.New("speechset: not found")

	// ErrFormat reports a serialized dataset that cannot be decoded.
	ErrFormat = errors.New("speechset: format error")
)
