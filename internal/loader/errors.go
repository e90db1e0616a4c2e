package loader

import "errors"

// Sentinel errors surfaced upward by the process-load driver. Parse
// errors and credential rejects are absorbed locally into slot state and
// never reach the caller; only capacity exhaustion and out-of-order phase
// calls are raised here. There is no error for an unavailable verifier:
// verifier failures are folded into Reject for the slot being checked.
var (
	// ErrCapacityExhausted is returned by Scan when the slot table fills
	// before the flash region ends. The scan halts; remaining containers
	// are ignored for this boot.
	ErrCapacityExhausted = errors.New("loader: slot table exhausted")

	// ErrPhaseOutOfOrder is returned when a Driver method is called before
	// its prerequisite phase has completed.
	ErrPhaseOutOfOrder = errors.New("loader: phase invoked out of order")
)
