package session

import "errors"

var (
	// ErrSessionCreation means the session could not be created, usually
	// because the remote store was unreachable. Sessions cannot start
	// purely offline; recording is blocked until this resolves.
	ErrSessionCreation = errors.New("session creation failed")

	// ErrNoSession means no session exists for the requested event.
	ErrNoSession = errors.New("no session for event")

	// ErrSessionEnded means the operation requires an active session but the
	// session has been ended. Ended sessions stay readable; reactivation
	// must be explicit.
	ErrSessionEnded = errors.New("session already ended")

	// ErrNotStarted means no session has been started or resumed yet.
	ErrNotStarted = errors.New("session not started")
)
