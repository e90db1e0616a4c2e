// Package verify defines the asynchronous cryptographic verifier contract
// and a reference RSA/SHA implementation of it.
//
// A Verifier is handed a payload slice and one credential record at a time
// and answers asynchronously with Accept, Pass, Reject, or a transient
// Error. The contract is deliberately indifferent to how asynchrony is
// implemented (explicit state machine, channel, coroutine); this package
// expresses it as a Future returned immediately by Verify and fulfilled
// later from a worker goroutine, with at most one verification in flight
// per Verifier instance -- the "exactly one outstanding verification"
// requirement is enforced by a single-token gate, not by caller discipline.
package verify
