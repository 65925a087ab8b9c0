package engine

import "errors"

// Lifecycle and move failures are fatal to the calling operation and are
// surfaced to the caller unchanged. Wrap with %w so callers can classify.
var (
	// ErrInvalidStateTransition signals a lifecycle operation called from
	// the wrong state.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrIllegalMove signals an advance with a response that does not
	// originate from the current node (or does not exist).
	ErrIllegalMove = errors.New("illegal move")

	// ErrUnsupportedConsequence signals an unknown or inapplicable
	// consequence operation. Never a silent no-op.
	ErrUnsupportedConsequence = errors.New("unsupported consequence")

	// ErrSessionClosed signals any mutation attempted after finalize.
	ErrSessionClosed = errors.New("session closed")
)
