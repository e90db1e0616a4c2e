package credcheck

import (
	"context"

	"github.com/dantte-lp/procheckd/internal/container"
	"github.com/dantte-lp/procheckd/internal/verify"
)

// DefaultMaxRetries is the recommended bound on verifier Error retries
// before folding into Reject.
const DefaultMaxRetries = 3

// Result is the outcome of running the Credentials Checking Policy over
// one container's footers.
type Result struct {
	// Phase is the terminal FSM phase reached: DecidedAccept,
	// DecidedReject, or Exhausted.
	Phase Phase
	// Passed is the terminal mapping of Phase to a pass/fail decision.
	Passed bool
	// FooterIndex is the index of the decisive footer, or -1 if the scan
	// never reached one (Exhausted with zero footers).
	FooterIndex int
	// Err carries the diagnostic cause of a Reject or a truncation,
	// for the slot's terminal reason code. Nil on Accept or Exhausted.
	Err error
}

// Check drives the credentials checking policy over footers, invoking v
// for each record against integrityRange (bytes [0, binary_end_offset) of
// the container) until a decisive Accept/Reject, a footer truncation, or
// exhaustion. Footers are processed strictly in order, one verification
// outstanding at a time.
func Check(
	ctx context.Context,
	v verify.Verifier,
	integrityRange []byte,
	footers *container.FooterIterator,
	policy Policy,
	maxRetries int,
) Result {
	for {
		f, ok := footers.Next()
		if !ok {
			if err := footers.Err(); err != nil {
				// A parser error mid-scan causes immediate Decided(Reject).
				return Result{Phase: DecidedReject, Passed: false, FooterIndex: footers.Index(), Err: err}
			}
			return Result{Phase: Exhausted, Passed: !policy.RequireCredentials(), FooterIndex: -1}
		}

		idx := footers.Index()
		outcome, err := verifyWithRetry(ctx, v, integrityRange, f, maxRetries)

		next, known := applyOutcome(outcome)
		if !known {
			// Defensive: verifyWithRetry always folds Error into Reject,
			// so every outcome it returns has a table entry.
			return Result{Phase: DecidedReject, Passed: false, FooterIndex: idx, Err: err}
		}

		switch next {
		case DecidedAccept:
			return Result{Phase: DecidedAccept, Passed: true, FooterIndex: idx}
		case DecidedReject:
			return Result{Phase: DecidedReject, Passed: false, FooterIndex: idx, Err: err}
		default: // Scanning: continue to the next footer
		}
	}
}

// verifyWithRetry calls v.Verify and retries while the outcome is
// verify.Error, up to maxRetries additional attempts, then folds a
// persistent Error into Reject. Context cancellation also surfaces as
// Reject.
func verifyWithRetry(
	ctx context.Context,
	v verify.Verifier,
	integrityRange []byte,
	f container.Footer,
	maxRetries int,
) (verify.Outcome, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		fut := v.Verify(ctx, integrityRange, f)
		res, waitErr := fut.Wait(ctx)
		if waitErr != nil {
			return verify.Reject, waitErr
		}
		if res.Outcome != verify.Error {
			return res.Outcome, res.Err
		}
		lastErr = res.Err
	}

	return verify.Reject, lastErr
}
