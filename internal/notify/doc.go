// Package notify provides a loader.SlotSink implementation that logs every
// process-slot state transition through log/slog.
//
// It is typically composed with internal/metrics.Collector via
// loader.FanoutSink, so a single Driver boot emits both metrics and a
// structured audit trail without either package depending on the other.
package notify
