package loader

import (
	"github.com/dantte-lp/procheckd/internal/container"
	"github.com/dantte-lp/procheckd/internal/identity"
)

// SlotState is a process slot's position in the loading state machine:
// Unloaded -> CredentialsUnchecked -> {CredentialsFailed |
// CredentialsPassed} -> {Running | CredentialsPassed (retained)}.
type SlotState uint8

const (
	// Unloaded is a slot's state before Scan allocates it.
	Unloaded SlotState = iota
	// CredentialsUnchecked is the state of a freshly parsed container,
	// before Check has run its credentials.
	CredentialsUnchecked
	// CredentialsFailed is terminal for this boot.
	CredentialsFailed
	// CredentialsPassed means the container's credentials decided Accept,
	// or the container exhausted its footers under a permissive policy.
	// A slot may remain here indefinitely if blocked by an identifier
	// collision.
	CredentialsPassed
	// Running is the promoted state: the slot is live and its identifiers
	// participate in uniqueness arbitration.
	Running
)

// String returns the slot-state name used in logs and notifications.
func (s SlotState) String() string {
	switch s {
	case Unloaded:
		return "Unloaded"
	case CredentialsUnchecked:
		return "CredentialsUnchecked"
	case CredentialsFailed:
		return "CredentialsFailed"
	case CredentialsPassed:
		return "CredentialsPassed"
	case Running:
		return "Running"
	default:
		return "Unknown"
	}
}

// ProcessSlot is one entry of the load driver's fixed-capacity table.
// Fields beyond the container reference and state are populated
// progressively as the slot advances through Check and Identify.
type ProcessSlot struct {
	// ID is this slot's index, stable for the lifetime of a boot.
	ID int
	// Generation is the slot table's generation counter at allocation
	// time, so stale references from a prior boot are detectable.
	Generation uint64
	// Address is the container's start address within the flash region,
	// used by the Arbiter's tie-break.
	Address int64
	// Container is the parsed view produced by Scan.
	Container *container.Container
	// State is the slot's current position in the loading state machine.
	State SlotState
	// Version is the container's declared version, or 0 if absent.
	Version uint32
	// AppID is set by Identify for CredentialsPassed slots; the zero
	// value (Absent) before then.
	AppID identity.ApplicationIdentifier
	// ShortID is set by Identify alongside AppID.
	ShortID identity.ShortIdentifier
	// Reason carries the terminal reason code queryable by operational
	// tooling: the cause of a CredentialsFailed transition, or nil
	// otherwise.
	Reason error
}

// StateTransition describes one slot-state change for a SlotSink.
type StateTransition struct {
	From SlotState
	To   SlotState
}

// SlotSink is the notification-only collaborator interface consumed by
// the load driver on every slot-state transition. Implementations must
// not block the Driver for long; there is no return value and no error
// to propagate.
type SlotSink interface {
	Record(slotID int, transition StateTransition)
}

// NopSink discards every notification. It is the Driver's default sink.
type NopSink struct{}

// Record implements SlotSink.
func (NopSink) Record(int, StateTransition) {}

// FanoutSink broadcasts every notification to each sink in order,
// letting logging, metrics, and admin-facing sinks be composed without
// the Driver knowing about any of them individually.
type FanoutSink []SlotSink

// Record implements SlotSink.
func (f FanoutSink) Record(slotID int, transition StateTransition) {
	for _, sink := range f {
		sink.Record(slotID, transition)
	}
}
