package domain

import "fmt"

// Reason classifies a caller fault.
type Reason string

const (
	ReasonInvalidAccess Reason = "INVALID_ACCESS"
	ReasonBadRequest    Reason = "BAD_REQUEST"
	ReasonNotFound      Reason = "NOT_FOUND"
	ReasonForbidden     Reason = "FORBIDDEN"
	ReasonConflict      Reason = "CONFLICT"
)

// ResourceError is an authorization or caller fault, surfaced to the caller
// unmodified.
type ResourceError struct {
	Reason  Reason
	Message string
}

func (e ResourceError) Error() string {
	if e.Message == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// Is enables errors.Is matching on ResourceError. A target with an empty
// Reason matches any resource error; otherwise reasons must agree.
func (e ResourceError) Is(target error) bool {
	switch t := target.(type) {
	case ResourceError:
		return t.Reason == "" || t.Reason == e.Reason
	case *ResourceError:
		return t.Reason == "" || t.Reason == e.Reason
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidAccess = ResourceError{Reason: ReasonInvalidAccess}
	ErrBadRequest    = ResourceError{Reason: ReasonBadRequest}
	ErrNotFound      = ResourceError{Reason: ReasonNotFound}
	ErrForbidden     = ResourceError{Reason: ReasonForbidden}
	ErrConflict      = ResourceError{Reason: ReasonConflict}
)

// ServiceError is an unexpected fault. It is reported and surfaced as a
// generic failure, never with internal detail.
type ServiceError struct {
	Message string
	Cause   error
}

func (e ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("internal: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("internal: %s", e.Message)
}

func (e ServiceError) Unwrap() error { return e.Cause }

func (e ServiceError) Is(target error) bool {
	_, ok := target.(ServiceError)
	if ok {
		return true
	}
	_, ok = target.(*ServiceError)
	return ok
}

var ErrInternal = ServiceError{}
