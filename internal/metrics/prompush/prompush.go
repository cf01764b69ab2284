// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the toolkit labels (op, status, kind) onto Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends without changes to the engine.
package prompush

import (
	"fmt"

	"csvtoolkit/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	opCounter  *prometheus.CounterVec // "csvtoolkit_op_total"
	opDuration *prometheus.SummaryVec // "csvtoolkit_op_duration_seconds"
	rowCounter *prometheus.CounterVec // "csvtoolkit_rows_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName is the Pushgateway "job" name, gatewayURL the base URL of the
// Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "csvtoolkit"
	}

	reg := prometheus.NewRegistry()

	opCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvtoolkit_op_total",
			Help: "Total number of engine operation executions, partitioned by op and status.",
		},
		[]string{"op", "status"},
	)
	opDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "csvtoolkit_op_duration_seconds",
			Help:       "Duration of engine operations in seconds, partitioned by op and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"op", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csvtoolkit_rows_total",
			Help: "Row-level counts per operation and kind (input, output, duplicates, etc.).",
		},
		[]string{"op", "kind"},
	)

	if err := reg.Register(opCounter); err != nil {
		return nil, fmt.Errorf("prompush: register op counter: %w", err)
	}
	if err := reg.Register(opDuration); err != nil {
		return nil, fmt.Errorf("prompush: register op summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}

	return &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        reg,
		opCounter:  opCounter,
		opDuration: opDuration,
		rowCounter: rowCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "csvtoolkit_op_total":
		if b.opCounter == nil {
			return
		}
		b.opCounter.WithLabelValues(labels["op"], labels["status"]).Add(delta)

	case "csvtoolkit_rows_total":
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["op"], labels["kind"]).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "csvtoolkit_op_duration_seconds" || b.opDuration == nil {
		return
	}
	b.opDuration.WithLabelValues(labels["op"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
