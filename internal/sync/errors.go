package sync

import (
	"errors"
	"fmt"
)

// StatusError is a non-2xx HTTP response from the remote store.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote store returned status %d", e.Code)
	}
	return fmt.Sprintf("remote store returned status %d: %s", e.Code, e.Body)
}

// MirrorError means a recorded event failed to reach the remote store. It is
// never surfaced as a blocking failure: the event stays queued and the
// operator sees a pending-sync indicator.
type MirrorError struct {
	EventID string
	Err     error
}

func (e *MirrorError) Error() string {
	return fmt.Sprintf("mirror event %s: %v", e.EventID, e.Err)
}

func (e *MirrorError) Unwrap() error {
	return e.Err
}

func asStatusError(err error, target **StatusError) bool {
	return errors.As(err, target)
}
