package reconcile

import (
	"errors"
	"fmt"
)

// Code is the machine-readable classification of a reconciliation failure.
type Code string

const (
	// CodeNotFound means a role display name, scope group name, or principal
	// reference did not resolve.
	CodeNotFound Code = "NotFound"
	// CodeIncompatibleScope means a workspace-level role was requested with a
	// non-default scope.
	CodeIncompatibleScope Code = "IncompatibleScope"
	// CodeUnauthorized means the principal is not locally managed (for
	// example SSO-provisioned) and cannot be mutated through this engine.
	CodeUnauthorized Code = "Unauthorized"
	// CodeConflict means the platform reported the desired state already
	// exists. Conflicts are downgraded to warnings, not failures.
	CodeConflict Code = "Conflict"
	// CodeTransientLookup means a transport or platform failure prevented the
	// request from completing; the platform's error code and HTTP status are
	// preserved in the detail.
	CodeTransientLookup Code = "TransientLookupError"
	// CodeCancelled means the run's context was cancelled before the request
	// issued its mutating call.
	CodeCancelled Code = "Cancelled"
)

// Error is a classified engine failure for a single request.
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two engine errors on their code alone, so callers can test
// errors.Is(err, &Error{Code: CodeNotFound}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the engine code from an error, defaulting to
// CodeTransientLookup for unclassified failures.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeTransientLookup
}
