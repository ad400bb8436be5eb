// Package herrors defines the closed set of result codes the Data Hub
// surfaces across its public API, a Go-shaped rendering of the same
// small set of outcomes an le_result_t-style status code would carry.
package herrors

import "errors"

// Sentinel errors for the Data Hub's result codes. Callers should compare
// with errors.Is, since internal call sites wrap these with extra context.
var (
	ErrDuplicate     = errors.New("duplicate")
	ErrNotFound      = errors.New("not found")
	ErrOverflow      = errors.New("overflow")
	ErrBadParameter  = errors.New("bad parameter")
	ErrFormat        = errors.New("format error")
	ErrBusy          = errors.New("busy")
	ErrClosed        = errors.New("closed")
	ErrFault         = errors.New("fault")
	ErrOutOfRange    = errors.New("out of range")
	ErrUnsupported   = errors.New("unsupported")
	ErrNotImplemented = errors.New("not implemented")
)
