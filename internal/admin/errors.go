package admin

import (
	"errors"
	"fmt"
)

// ErrObjectNotFound is the sentinel model managers return when an
// identifier does not resolve to a stored entity.
var ErrObjectNotFound = errors.New("object not found")

// AccessDeniedError means a capability check failed. The HTTP layer maps it
// to 403.
type AccessDeniedError struct {
	AdminCode  string
	Capability Capability
	ObjectID   string
}

func (e *AccessDeniedError) Error() string {
	if e.ObjectID != "" {
		return fmt.Sprintf("access denied: %s on %s object %s", e.Capability, e.AdminCode, e.ObjectID)
	}
	return fmt.Sprintf("access denied: %s on %s", e.Capability, e.AdminCode)
}

// NotFoundError covers every missing-thing condition: unknown admin code,
// unresolvable object id, missing revision, revisions disabled. Each call
// site supplies its own message. Maps to 404.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func NewNotFound(format string, args ...any) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError signals a defect in admin wiring (unknown batch action,
// nil handler, bad export format). Maps to 500; these are meant to surface
// during development, not to be handled per request.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// PersistenceError wraps a model-manager failure during create, update,
// delete or batch delete. Actions recover it into an error flash and
// re-render the in-flight form.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s failed: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// LockError reports a concurrent-edit conflict on update. Recovered into a
// flash pointing the operator back to the edit view.
type LockError struct {
	ObjectID string
	Err      error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("object %s was modified by another request", e.ObjectID)
}
func (e *LockError) Unwrap() error { return e.Err }

// CSRFError rejects a state-changing request with a missing or stale token.
// Maps to 400.
type CSRFError struct {
	Reason string
}

func (e *CSRFError) Error() string { return "csrf validation failed: " + e.Reason }
