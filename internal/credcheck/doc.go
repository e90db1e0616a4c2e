// Package credcheck implements the credentials checking policy: a
// per-container state machine that drives a verify.Verifier across a
// container's footer records in order and arrives at an overall pass/fail
// decision.
//
// States: Idle -> Scanning(i) -> Decided(Accept|Reject) | Exhausted. The
// phase transitions themselves (Scanning + outcome -> next phase) are a
// pure transition table keyed by (Phase, Outcome) instead of (State,
// Event); the scanning index and the exhaustion condition ("footer i does
// not exist") are driver-level concerns the table does not encode.
package credcheck
