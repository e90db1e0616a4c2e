package flash

import "errors"

// Sentinel errors for mapping a flash image file, kept separate from the
// loading state machine's own error kinds.
var (
	// ErrAlreadyClosed is returned by Close when the Region is already
	// closed. Next on a closed Region yields nothing.
	ErrAlreadyClosed = errors.New("flash: region already closed")
)
