package notify

import (
	"log/slog"

	"github.com/dantte-lp/procheckd/internal/loader"
)

// Sink logs process-slot state transitions. It implements loader.SlotSink.
type Sink struct {
	log *slog.Logger
}

// New returns a Sink that logs through log. If log is nil, slog.Default()
// is used.
func New(log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{log: log.With(slog.String("component", "loader.notify"))}
}

// Record implements loader.SlotSink. The log level reflects the severity of
// the transition: Running is informational, CredentialsFailed is a
// warning, and a CredentialsPassed self-transition (the Uniqueness
// Arbiter's collision signal) is also a warning. Everything else is
// logged at debug.
func (s *Sink) Record(slotID int, transition loader.StateTransition) {
	attrs := []any{
		slog.Int("slot", slotID),
		slog.String("from", transition.From.String()),
		slog.String("to", transition.To.String()),
	}

	switch {
	case transition.To == loader.Running:
		s.log.Info("process promoted to running", attrs...)
	case transition.To == loader.CredentialsFailed:
		s.log.Warn("process failed credentials check", attrs...)
	case transition.From == loader.CredentialsPassed && transition.To == loader.CredentialsPassed:
		s.log.Warn("process retained: identifier collision with a running process", attrs...)
	default:
		s.log.Debug("process slot transition", attrs...)
	}
}

var _ loader.SlotSink = (*Sink)(nil)
