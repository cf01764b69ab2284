// Command csvtoolkit starts the CSV toolkit web server.
//
// Usage:
//
//	go run ./cmd/csvtoolkit -addr :8080
//
// Configuration comes from CSVTOOLKIT_* environment variables, with flags
// taking precedence.
package main

import (
	"flag"
	"log"

	"csvtoolkit/internal/config"
	"csvtoolkit/internal/engine"
	"csvtoolkit/internal/metrics"
	"csvtoolkit/internal/metrics/prompush"
	"csvtoolkit/internal/webui"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	addr := flag.String("addr", cfg.Addr, "listen address")
	maxUpload := flag.Int64("max-upload-bytes", cfg.MaxUploadBytes, "multipart body size cap per request")
	pushgateway := flag.String("pushgateway", cfg.PushgatewayURL, "Prometheus Pushgateway URL (empty disables metrics)")
	metricsJob := flag.String("metrics-job", cfg.MetricsJobName, "Pushgateway job name")
	blankThreshold := flag.Float64("blank-threshold", cfg.BlankThreshold, "default blank-column percentage cutoff")
	flag.Parse()

	cfg.Addr = *addr
	cfg.MaxUploadBytes = *maxUpload
	cfg.PushgatewayURL = *pushgateway
	cfg.MetricsJobName = *metricsJob
	cfg.BlankThreshold = *blankThreshold
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	if cfg.PushgatewayURL != "" {
		backend, err := prompush.NewBackend(cfg.MetricsJobName, cfg.PushgatewayURL)
		if err != nil {
			log.Fatal(err)
		}
		metrics.SetBackend(backend)
		log.Printf("metrics: pushing to %s as job %q", cfg.PushgatewayURL, cfg.MetricsJobName)
	}

	srv := webui.NewServer(webui.Config{
		Addr:           cfg.Addr,
		MaxUploadBytes: cfg.MaxUploadBytes,
		BlankThreshold: cfg.BlankThreshold,
	}, engine.New())

	log.Printf("listening on %s", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
