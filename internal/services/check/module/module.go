// Package module wires the check pipeline into modkit
package module

import (
	"time"

	"fraudshield/internal/core/risk"
	"fraudshield/internal/modkit"
	"fraudshield/internal/modkit/httpkit"
	"fraudshield/internal/services/check/domain"
	"fraudshield/internal/services/check/service"
	shopsdom "fraudshield/internal/services/shops/domain"
)

// Adapters are the external surfaces the pipeline runs against
type Adapters struct {
	Risk     domain.RiskPort
	Platform domain.PlatformPort
	Shops    shopsdom.ReaderPort
}

// Ports exposed by the check module
type Ports struct {
	Checker  domain.CheckerPort
	Enqueuer domain.EnqueuerPort
}

// Module implements the check service module
type Module struct {
	deps  modkit.Deps
	ports Ports
	queue *service.Queue
}

// New constructs a new check module
func New(deps modkit.Deps, a Adapters) *Module {
	svc := service.New(a.Risk, a.Platform, a.Shops, service.Config{
		Thresholds: risk.Thresholds{
			Medium: deps.Cfg.MayFloat64("RISK_MEDIUM_THRESHOLD", 50),
			Safe:   deps.Cfg.MayFloat64("RISK_SAFE_THRESHOLD", 70),
		},
	})
	queue := service.NewQueue(svc, service.QueueConfig{
		Size:       deps.Cfg.MayInt("CHECK_QUEUE_SIZE", 256),
		Workers:    deps.Cfg.MayInt("CHECK_WORKERS", 4),
		JobTimeout: deps.Cfg.MayDuration("CHECK_JOB_TIMEOUT", time.Minute),
	})
	return &Module{
		deps:  deps,
		queue: queue,
		ports: Ports{Checker: svc, Enqueuer: queue},
	}
}

// Queue returns the worker queue for main to run
func (m *Module) Queue() *service.Queue { return m.queue }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "check" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module, the check pipeline has no routes
func (m *Module) MountRoutes(r httpkit.Router) {}
