package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"csvtoolkit/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// readCounterValue reads the current value of a Counter for assertions.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{
			name:       "missing gateway URL returns error",
			jobName:    "toolkit-job",
			gatewayURL: "",
			wantErr:    true,
		},
		{
			name:        "empty job name uses default",
			jobName:     "",
			gatewayURL:  "http://pushgateway:9091",
			wantErr:     false,
			wantJobName: "csvtoolkit",
		},
		{
			name:        "explicit job name is preserved",
			jobName:     "my-custom-job",
			gatewayURL:  "http://pushgateway:9091",
			wantErr:     false,
			wantJobName: "my-custom-job",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewBackend() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend() error = %v", err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
		})
	}
}

func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("toolkit", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter("csvtoolkit_op_total", 1, metrics.Labels{"op": "join", "status": "success"})
	b.IncCounter("csvtoolkit_op_total", 2, metrics.Labels{"op": "join", "status": "success"})
	b.IncCounter("csvtoolkit_rows_total", 5, metrics.Labels{"op": "dedup", "kind": "duplicates"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"foo": "bar"})

	if got := readCounterValue(t, b.opCounter.WithLabelValues("join", "success")); got != 3 {
		t.Fatalf("opCounter value = %v, want 3", got)
	}
	if got := readCounterValue(t, b.rowCounter.WithLabelValues("dedup", "duplicates")); got != 5 {
		t.Fatalf("rowCounter value = %v, want 5", got)
	}
	if got := readCounterValue(t, b.opCounter.WithLabelValues("x", "y")); got != 0 {
		t.Fatalf("untouched opCounter value = %v, want 0", got)
	}
}

// IncCounter and ObserveHistogram must not panic on a zero-value backend.
func TestNilCollectorsAreSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter("csvtoolkit_op_total", 1, metrics.Labels{"op": "o", "status": "success"})
	b.IncCounter("csvtoolkit_rows_total", 1, metrics.Labels{"op": "o", "kind": "input"})
	b.ObserveHistogram("csvtoolkit_op_duration_seconds", 1, metrics.Labels{"op": "o", "status": "success"})
}

func TestFlushPushesToGateway(t *testing.T) {
	t.Parallel()

	var pushed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushed = true
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("toolkit", srv.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter("csvtoolkit_op_total", 1, metrics.Labels{"op": "join", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if !pushed {
		t.Fatalf("Flush() did not hit the gateway")
	}
}
