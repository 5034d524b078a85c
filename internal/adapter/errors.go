package adapter

import "errors"

var (
	// ErrUnreachable is returned for transport failures, timeouts and
	// 5xx-class responses. Always recoverable: it triggers offline mode and
	// is never surfaced as a user-facing failure.
	ErrUnreachable = errors.New("remote replica unreachable")

	// ErrNotFound is returned when the record or collection does not exist
	// on the replica.
	ErrNotFound = errors.New("record not found on remote replica")

	// ErrRevisionConflict is returned when the replica rejects a write
	// because its head diverged from the pushed parent revision.
	ErrRevisionConflict = errors.New("remote revision conflict")

	// ErrDenied is returned on 401/403 responses; the surrounding
	// application layer owns token refresh.
	ErrDenied = errors.New("remote replica denied the request")
)
