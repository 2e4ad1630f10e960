package server

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address for Run.
	Addr string

	// ReadTimeout, WriteTimeout and ShutdownTimeout bound the HTTP server.
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// Title is the page title of GET /.
	Title string

	// MetricsPath serves Gatherer in the Prometheus text format. Empty
	// disables the endpoint.
	MetricsPath string

	// Gatherer defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		Title:           "bloom",
		MetricsPath:     "/metrics",
	}
}
