package publish

import (
	"errors"
	"fmt"
)

// ErrorKind classifies publish failures. Rate-limited failures are kept
// distinct so a future retry policy could back off; within a run every kind
// is handled the same way, the item stays unseen and retries next run.
type ErrorKind string

const (
	KindRateLimited ErrorKind = "rate_limited"
	KindAuthFailed  ErrorKind = "auth_failed"
	KindRejected    ErrorKind = "rejected"
	KindTransient   ErrorKind = "transient"
)

// Error is an item-level publish failure
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("publish failed (%s): %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind, defaulting to transient for errors that
// did not come from the publisher itself (timeouts, broken connections)
func KindOf(err error) ErrorKind {
	var pubErr *Error
	if errors.As(err, &pubErr) {
		return pubErr.Kind
	}
	return KindTransient
}
