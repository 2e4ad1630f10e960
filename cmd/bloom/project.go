package main

import (
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bloom-go/bloom"
	"github.com/bloom-go/bloom/internal/config"
	"github.com/bloom-go/bloom/internal/demo"
	"github.com/bloom-go/bloom/pkg/dom"
	"github.com/bloom-go/bloom/pkg/metrics"
)

const mountID = "app"

// project is the demo app built from a loaded configuration.
type project struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	app      *bloom.App
}

func loadProject(dir string, logOut io.Writer) (*project, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	return newProject(cfg, logOut)
}

func newProject(cfg *config.Config, logOut io.Writer) (*project, error) {
	logger := cfg.Logger(logOut)

	doc := dom.NewDocument(dom.WithLogger(logger))
	mount := doc.CreateElement("div")
	mount.SetAttribute("id", mountID)
	doc.Body().AppendChild(mount)

	p := &project{cfg: cfg, logger: logger}
	opts := []bloom.Option{
		bloom.WithLogger(logger),
		bloom.WithDetachPolicy(cfg.DetachPolicy()),
	}
	if cfg.Metrics.Enabled {
		p.registry = prometheus.NewRegistry()
		recorder := metrics.New(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithRegistry(p.registry),
		)
		opts = append(opts, bloom.WithRecorder(recorder))
	}

	app, err := bloom.New(doc, mountID, opts...)
	if err != nil {
		return nil, err
	}
	if err := demo.Register(app); err != nil {
		return nil, err
	}
	p.app = app
	return p, nil
}

func (p *project) title() string {
	if p.cfg.Name != "" {
		return p.cfg.Name
	}
	return "bloom"
}
