package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dantte-lp/procheckd/internal/loader"
)

const namespace = "procheckd"

// Label names for process-checker metrics.
const (
	labelFromState = "from_state"
	labelToState   = "to_state"
)

// Collector holds the Prometheus metrics emitted by the Process-Load
// Driver. It implements loader.SlotSink directly, so it can be wired into
// loader.NewDriver as the sole sink or composed into a loader.FanoutSink
// alongside internal/notify's logging sink.
type Collector struct {
	SlotsLoaded        prometheus.Gauge
	StateTransitions   *prometheus.CounterVec
	CredentialErrors   prometheus.Counter
	IdentityCollisions prometheus.Counter
	CapacityExhausted  prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics against reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.SlotsLoaded,
		c.StateTransitions,
		c.CredentialErrors,
		c.IdentityCollisions,
		c.CapacityExhausted,
	)

	return c
}

func newMetrics() *Collector {
	return &Collector{
		SlotsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slots_loaded",
			Help:      "Number of process slots currently allocated.",
		}),

		StateTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_state_transitions_total",
			Help:      "Total process-slot state machine transitions.",
		}, []string{labelFromState, labelToState}),

		CredentialErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credential_errors_total",
			Help:      "Total slots that transitioned to CredentialsFailed.",
		}),

		IdentityCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_collisions_total",
			Help:      "Total times the Uniqueness Arbiter left a candidate in CredentialsPassed due to a conflicting identifier.",
		}),

		CapacityExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capacity_exhausted_total",
			Help:      "Total boots where the slot table filled before the flash region was fully scanned.",
		}),
	}
}

// Record implements loader.SlotSink. It is safe to call concurrently,
// inheriting the thread safety of the underlying prometheus collectors.
func (c *Collector) Record(_ int, transition loader.StateTransition) {
	c.StateTransitions.WithLabelValues(transition.From.String(), transition.To.String()).Inc()

	switch transition.To {
	case loader.CredentialsUnchecked:
		c.SlotsLoaded.Inc()
	case loader.CredentialsFailed:
		c.CredentialErrors.Inc()
	}

	if transition.From == loader.CredentialsPassed && transition.To == loader.CredentialsPassed {
		// The arbiter re-records a retained CredentialsPassed slot with
		// no state change to signal a collision was the blocker; see
		// loader's Promote.
		c.IdentityCollisions.Inc()
	}
}

// IncCapacityExhausted records a boot where Scan halted with
// loader.ErrCapacityExhausted. It is not part of SlotSink because
// capacity exhaustion is a Scan-level error, not a slot transition;
// callers invoke it directly from the boot sequence.
func (c *Collector) IncCapacityExhausted() {
	c.CapacityExhausted.Inc()
}

var _ loader.SlotSink = (*Collector)(nil)
