package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/dantte-lp/procheckd/internal/container"
	"github.com/dantte-lp/procheckd/internal/credcheck"
	"github.com/dantte-lp/procheckd/internal/identity"
	"github.com/dantte-lp/procheckd/internal/verify"
)

// checkedData is per-slot state the Driver needs between Check and
// Identify that is not part of a slot's externally visible snapshot:
// the payload slice and the footer that decided Accept, if any. Kept as
// a parallel slice rather than fields on ProcessSlot, the way the
// teacher's Manager keeps a sessionEntry wrapper around the data it
// exposes in snapshots.
type checkedData struct {
	payload     []byte
	accepted    container.Footer
	hasAccepted bool
}

// Driver is the process-load driver: it owns the fixed-capacity slot
// table and runs Scan, Check, Identify, and Promote strictly in order,
// suspending only at verifier boundaries. A Driver is used for exactly
// one boot; construct a new one to reload.
type Driver struct {
	mu sync.RWMutex

	capacity   int
	generation uint64

	slots    []ProcessSlot
	internal []checkedData

	verifier            verify.Verifier
	checkPolicy         credcheck.Policy
	idPolicy            identity.Policy
	sink                SlotSink
	maxRetries          int
	preferProgramHeader bool
	notifyReady         bool

	log *slog.Logger

	scanned, checked, identified, promoted bool
}

// DriverOption configures a Driver at construction via the
// functional-options pattern.
type DriverOption func(*Driver)

// WithMaxRetries overrides credcheck.DefaultMaxRetries.
func WithMaxRetries(n int) DriverOption {
	return func(d *Driver) { d.maxRetries = n }
}

// WithCheckPolicy overrides the default credcheck.StrictPolicy.
func WithCheckPolicy(p credcheck.Policy) DriverOption {
	return func(d *Driver) { d.checkPolicy = p }
}

// WithIdentifierPolicy overrides the default identity.DefaultPolicy.
func WithIdentifierPolicy(p identity.Policy) DriverOption {
	return func(d *Driver) { d.idPolicy = p }
}

// WithSlotSink overrides the default NopSink. Pass a FanoutSink to
// notify more than one consumer.
func WithSlotSink(s SlotSink) DriverOption {
	return func(d *Driver) { d.sink = s }
}

// WithPreferProgramHeader overrides the default (true): whether
// Container.Resolve prefers the Program Header's binary_end_offset over
// the Main Header's when both are present.
func WithPreferProgramHeader(prefer bool) DriverOption {
	return func(d *Driver) { d.preferProgramHeader = prefer }
}

// WithGeneration sets the slot-generation counter stamped onto every
// slot this Driver allocates (spec.md §3 supplement).
func WithGeneration(generation uint64) DriverOption {
	return func(d *Driver) { d.generation = generation }
}

// WithReadyNotify enables or disables the post-Promote sd_notify signal.
// It defaults to enabled; daemon.SdNotify is a no-op when NOTIFY_SOCKET
// is unset, so an enabled Driver also runs without a systemd supervisor.
func WithReadyNotify(enabled bool) DriverOption {
	return func(d *Driver) { d.notifyReady = enabled }
}

// NewDriver constructs a Driver with the given slot-table capacity and
// Cryptographic Verifier. Defaults: credcheck.StrictPolicy,
// identity.DefaultPolicy, NopSink, credcheck.DefaultMaxRetries, and
// preferProgramHeader = true.
func NewDriver(capacity int, v verify.Verifier, log *slog.Logger, opts ...DriverOption) *Driver {
	if log == nil {
		log = slog.Default()
	}
	d := &Driver{
		capacity:            capacity,
		verifier:            v,
		checkPolicy:         credcheck.StrictPolicy{},
		idPolicy:            identity.DefaultPolicy{},
		sink:                NopSink{},
		maxRetries:          credcheck.DefaultMaxRetries,
		preferProgramHeader: true,
		notifyReady:         true,
		log:                 log.With(slog.String("component", "loader")),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// setState mutates slots[idx]'s state, notifies the sink, and logs the
// transition. Callers must hold d.mu.
func (d *Driver) setState(idx int, to SlotState) {
	from := d.slots[idx].State
	d.slots[idx].State = to
	d.sink.Record(d.slots[idx].ID, StateTransition{From: from, To: to})
	d.log.Info("slot state transition",
		slog.Int("slot", d.slots[idx].ID),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
}

// Scan walks region from its lowest address upward, allocating a slot for
// each valid container parsed. It stops at the first invalid container,
// at region exhaustion, or when the slot table fills; the last case
// returns ErrCapacityExhausted, the only Scan error the boot flow sees.
func (d *Driver) Scan(region FlashRegion) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.scanned {
		return fmt.Errorf("scan: %w", ErrPhaseOutOfOrder)
	}
	d.scanned = true

	for {
		addr, data, ok := region.Next()
		if !ok {
			return nil
		}

		c, err := container.Parse(data)
		if err != nil {
			d.log.Debug("scan halted on invalid container",
				slog.Int64("address", addr), slog.Any("error", err))
			return nil
		}

		if len(d.slots) >= d.capacity {
			d.log.Warn("slot table exhausted, scan halted", slog.Int("capacity", d.capacity))
			return ErrCapacityExhausted
		}

		id := len(d.slots)
		d.slots = append(d.slots, ProcessSlot{
			ID:         id,
			Generation: d.generation,
			Address:    addr,
			Container:  c,
			Version:    c.Version(),
			State:      Unloaded,
		})
		d.internal = append(d.internal, checkedData{})
		d.setState(id, CredentialsUnchecked)
	}
}

// Check runs the credentials checking policy over each slot in scan
// order. It may suspend at verifier boundaries but never returns an
// error: every outcome is absorbed into slot state.
func (d *Driver) Check(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.scanned {
		return fmt.Errorf("check: %w", ErrPhaseOutOfOrder)
	}
	if d.checked {
		return fmt.Errorf("check: %w", ErrPhaseOutOfOrder)
	}
	d.checked = true

	for i := range d.slots {
		d.checkOne(ctx, i)
	}
	return nil
}

func (d *Driver) checkOne(ctx context.Context, idx int) {
	slot := &d.slots[idx]

	payload, footers, err := slot.Container.Resolve(d.preferProgramHeader)
	if err != nil {
		slot.Reason = err
		d.setState(idx, CredentialsFailed)
		return
	}

	binaryEnd := slot.Container.BinaryEndOffset(d.preferProgramHeader)
	integrityRange := slot.Container.Raw[:binaryEnd]

	result := credcheck.Check(ctx, d.verifier, integrityRange, footers, d.checkPolicy, d.maxRetries)
	slot.Reason = result.Err

	if !result.Passed {
		d.setState(idx, CredentialsFailed)
		return
	}

	d.internal[idx].payload = payload
	if result.Phase == credcheck.DecidedAccept && result.FooterIndex >= 0 {
		if f, ok := footerAt(slot.Container, d.preferProgramHeader, result.FooterIndex); ok {
			d.internal[idx].accepted = f
			d.internal[idx].hasAccepted = true
		}
	}
	d.setState(idx, CredentialsPassed)
}

// footerAt re-resolves a container's footer iterator and walks to index,
// to recover the footer that decided Accept without credcheck.Check
// needing to return it directly (FooterIterator is single-pass and
// already consumed by the time Check returns).
func footerAt(c *container.Container, preferProgramHeader bool, index int) (container.Footer, bool) {
	_, footers, err := c.Resolve(preferProgramHeader)
	if err != nil {
		return container.Footer{}, false
	}
	for {
		f, ok := footers.Next()
		if !ok {
			return container.Footer{}, false
		}
		if footers.Index() == index {
			return f, true
		}
	}
}

// Identify computes the application identifier and short identifier for
// every CredentialsPassed slot.
func (d *Driver) Identify() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.checked {
		return fmt.Errorf("identify: %w", ErrPhaseOutOfOrder)
	}
	if d.identified {
		return fmt.Errorf("identify: %w", ErrPhaseOutOfOrder)
	}
	d.identified = true

	for i := range d.slots {
		if d.slots[i].State != CredentialsPassed {
			continue
		}

		in := identity.Input{
			Payload:     d.internal[i].payload,
			Accepted:    d.internal[i].accepted,
			HasAccepted: d.internal[i].hasAccepted,
		}
		if name, ok := d.slots[i].Container.PackageName(); ok {
			in.PackageName = name
		}

		d.slots[i].AppID = d.idPolicy.Identify(in)
		d.slots[i].ShortID = identity.Compress(d.slots[i].AppID)
	}
	return nil
}

// Promote delegates to the Uniqueness Arbiter, then signals boot-complete
// readiness to a process supervisor exactly once, via the same sd_notify
// handshake a systemd-managed daemon uses after its own startup finishes.
func (d *Driver) Promote() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.identified {
		return fmt.Errorf("promote: %w", ErrPhaseOutOfOrder)
	}
	if d.promoted {
		return fmt.Errorf("promote: %w", ErrPhaseOutOfOrder)
	}
	d.promoted = true

	promote(d.slots, d.setState)

	if d.notifyReady {
		if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
			d.log.Warn("sd_notify readiness signal failed", slog.Any("error", err))
		} else if sent {
			d.log.Info("sent sd_notify readiness signal")
		}
	}
	return nil
}

// Run executes all four phases in order over region. It stops early,
// returning the Scan error, if capacity is exhausted; Check, Identify,
// and Promote never fail in the error-return sense.
func (d *Driver) Run(ctx context.Context, region FlashRegion) error {
	if err := d.Scan(region); err != nil {
		return err
	}
	if err := d.Check(ctx); err != nil {
		return err
	}
	if err := d.Identify(); err != nil {
		return err
	}
	return d.Promote()
}

// Slots returns a snapshot of every slot's current state, safe to read
// without holding the Driver's lock afterward.
func (d *Driver) Slots() []ProcessSlot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]ProcessSlot, len(d.slots))
	copy(out, d.slots)
	return out
}

// Slot returns a single slot snapshot by id.
func (d *Driver) Slot(id int) (ProcessSlot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if id < 0 || id >= len(d.slots) {
		return ProcessSlot{}, false
	}
	return d.slots[id], true
}

// RunningEntry is one (slot_id, short_id) pair yielded by RunningSet.
type RunningEntry struct {
	SlotID  int
	ShortID identity.ShortIdentifier
}

// RunningSet returns every Running slot's (slot_id, short_id) pair.
func (d *Driver) RunningSet() []RunningEntry {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]RunningEntry, 0, len(d.slots))
	for _, s := range d.slots {
		if s.State == Running {
			out = append(out, RunningEntry{SlotID: s.ID, ShortID: s.ShortID})
		}
	}
	return out
}

// QueryShortID resolves a slot id to its ShortIdentifier, for use by
// access-control modules. It only returns a value for a Running slot: a
// non-Running process has no queryable identity (it was never admitted,
// or it lost a collision).
func (d *Driver) QueryShortID(slotID int) (identity.ShortIdentifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if slotID < 0 || slotID >= len(d.slots) {
		return identity.ShortIdentifier{}, false
	}
	slot := d.slots[slotID]
	if slot.State != Running {
		return identity.ShortIdentifier{}, false
	}
	return slot.ShortID, true
}
