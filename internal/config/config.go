// Package config defines the server configuration model. It is intentionally
// small, explicit, and dependency-free: values come from flags with
// environment-variable fallbacks, decoded by the standard library alone, so
// the binary can run in a container with nothing but env vars set.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Defaults applied when neither flag nor environment provides a value.
const (
	DefaultAddr            = ":8080"
	DefaultMaxUploadBytes  = 32 << 20 // 32 MiB across all files of a request
	DefaultMetricsJobName  = "csvtoolkit"
	DefaultBlankThreshold  = 80
	DefaultPushgatewayURL  = ""
	envAddr                = "CSVTOOLKIT_ADDR"
	envMaxUploadBytes      = "CSVTOOLKIT_MAX_UPLOAD_BYTES"
	envPushgatewayURL      = "CSVTOOLKIT_PUSHGATEWAY_URL"
	envMetricsJobName      = "CSVTOOLKIT_METRICS_JOB"
	envBlankThresholdValue = "CSVTOOLKIT_BLANK_THRESHOLD"
)

// Config holds everything the server needs at startup.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// MaxUploadBytes caps the total multipart body size per request.
	MaxUploadBytes int64

	// PushgatewayURL enables the Prometheus Pushgateway metrics backend
	// when non-empty.
	PushgatewayURL string

	// MetricsJobName is the Pushgateway job grouping.
	MetricsJobName string

	// BlankThreshold is the default blank-column percentage cutoff when a
	// request does not provide one.
	BlankThreshold float64
}

// FromEnv builds a Config from defaults overlaid with environment variables.
// Flag values are applied on top by the caller.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:           DefaultAddr,
		MaxUploadBytes: DefaultMaxUploadBytes,
		PushgatewayURL: DefaultPushgatewayURL,
		MetricsJobName: DefaultMetricsJobName,
		BlankThreshold: DefaultBlankThreshold,
	}
	if v := os.Getenv(envAddr); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv(envMaxUploadBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s=%q is not an integer: %w", envMaxUploadBytes, v, err)
		}
		cfg.MaxUploadBytes = n
	}
	if v := os.Getenv(envPushgatewayURL); v != "" {
		cfg.PushgatewayURL = v
	}
	if v := os.Getenv(envMetricsJobName); v != "" {
		cfg.MetricsJobName = v
	}
	if v := os.Getenv(envBlankThresholdValue); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("config: %s=%q is not a number: %w", envBlankThresholdValue, v, err)
		}
		cfg.BlankThreshold = f
	}
	return cfg, cfg.Validate()
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("config: listen address is empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: max upload bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.BlankThreshold < 0 || c.BlankThreshold > 100 {
		return fmt.Errorf("config: blank threshold must be within [0,100], got %v", c.BlankThreshold)
	}
	return nil
}
