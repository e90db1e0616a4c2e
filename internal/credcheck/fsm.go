package credcheck

import "github.com/dantte-lp/procheckd/internal/verify"

// Phase is a credentials checking policy state.
type Phase uint8

const (
	// Idle is the state before scanning begins.
	Idle Phase = iota
	// Scanning means footer i is being (or about to be) checked.
	Scanning
	// DecidedAccept is terminal: the container passes credentials.
	DecidedAccept
	// DecidedReject is terminal: the container fails credentials.
	DecidedReject
	// Exhausted is terminal: all footers were consulted without a
	// decisive Accept or Reject; require_credentials() breaks the tie.
	Exhausted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case Scanning:
		return "Scanning"
	case DecidedAccept:
		return "DecidedAccept"
	case DecidedReject:
		return "DecidedReject"
	case Exhausted:
		return "Exhausted"
	default:
		return "Unknown"
	}
}

// stateOutcome is the FSM transition table key: the phase a footer
// verification result was observed in, plus that result's Outcome.
type stateOutcome struct {
	phase   Phase
	outcome verify.Outcome
}

// fsmTable maps (Scanning, outcome) to the next phase. Accept and Reject
// are terminal; Pass stays in Scanning (the driver advances the index).
// Error has no entry: the driver folds it into Reject only after
// exhausting its retry budget, never consulting this table directly for
// Error.
var fsmTable = map[stateOutcome]Phase{
	{Scanning, verify.Accept}: DecidedAccept,
	{Scanning, verify.Reject}: DecidedReject,
	{Scanning, verify.Pass}:   Scanning,
}

// applyOutcome looks up the next phase for a footer verification outcome
// observed while in Scanning. ok is false for any input this table does
// not cover (in particular verify.Error, which the driver must resolve
// itself before calling this).
func applyOutcome(outcome verify.Outcome) (Phase, bool) {
	next, ok := fsmTable[stateOutcome{Scanning, outcome}]
	return next, ok
}
