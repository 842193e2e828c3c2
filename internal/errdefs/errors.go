package errdefs

import (
	"errors"
	"fmt"
)

// Reason classifies a ReconcileError.
type Reason string

const (
	RepositoryInit     Reason = "RepositoryInit"     // The remote repository handle could not be created
	RemoteNotFound     Reason = "RemoteNotFound"     // The remote repository does not exist
	InvalidCredentials Reason = "InvalidCredentials" // Credentials are malformed, missing or rejected
	NoValidRef         Reason = "NoValidRef"         // No advertised reference matches the selection policy
	UnknownRefKind     Reason = "UnknownRefKind"     // A reference path could not be classified
	RemoteTimeout      Reason = "RemoteTimeout"      // The remote did not answer in time
	InvalidDestination Reason = "InvalidDestination" // The push destination is not a valid image reference
)

// ReconcileError is a domain failure encountered while converging a site.
type ReconcileError struct {
	Reason  Reason
	Message string
	Err     error
}

func (e *ReconcileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *ReconcileError) Unwrap() error { return e.Err }

// NewReconcileError creates a ReconcileError with a formatted message.
func NewReconcileError(reason Reason, err error, format string, args ...any) *ReconcileError {
	return &ReconcileError{Reason: reason, Message: fmt.Sprintf(format, args...), Err: err}
}

// ClusterAPIError wraps a failure returned by the Kubernetes API server.
type ClusterAPIError struct {
	Op     string // e.g. "create", "delete"
	Object string // e.g. "Job ns/name"
	Err    error
}

func (e *ClusterAPIError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Object, e.Err)
}

func (e *ClusterAPIError) Unwrap() error { return e.Err }

// NewClusterAPIError wraps err, or returns nil if err is nil.
func NewClusterAPIError(op, object string, err error) error {
	if err == nil {
		return nil
	}
	return &ClusterAPIError{Op: op, Object: object, Err: err}
}

// IsReason reports whether err carries a ReconcileError with the given reason.
func IsReason(err error, reason Reason) bool {
	var re *ReconcileError
	return errors.As(err, &re) && re.Reason == reason
}

// Kind returns a short label for err suitable for metrics: the ReconcileError reason, "ClusterAPI", or "Unknown".
func Kind(err error) string {
	var re *ReconcileError
	var ce *ClusterAPIError
	switch {
	case errors.As(err, &re):
		return string(re.Reason)
	case errors.As(err, &ce):
		return "ClusterAPI"
	default:
		return "Unknown"
	}
}
