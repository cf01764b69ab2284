// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the CSV toolkit.
//
// The package is intentionally minimal:
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//
// The primary use case is instrumentation of the engine operations (combine,
// join, dedup, etc.) without coupling the core transformation logic to a
// specific metrics system such as Prometheus.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordOp measures one engine operation: latency plus success/failure.
func RecordOp(op string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"op":     op,
		"status": status,
	}

	backend.IncCounter("csvtoolkit_op_total", 1, lbls)
	backend.ObserveHistogram("csvtoolkit_op_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given operation and kind.
//
// Typical kinds mirror the result stats, e.g.:
//   - "input"
//   - "output"
//   - "duplicates"
//   - "unmatched"
func RecordRows(op, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("csvtoolkit_rows_total", float64(delta), Labels{
		"op":   op,
		"kind": kind,
	})
}
