// Package module wires the shops service into modkit
package module

import (
	"fraudshield/internal/modkit"
	"fraudshield/internal/modkit/httpkit"
	"fraudshield/internal/services/shops/domain"
	"fraudshield/internal/services/shops/repo"
	"fraudshield/internal/services/shops/service"
)

// Ports exposed by the shops module
type Ports struct {
	Reader domain.ReaderPort
	Writer domain.WriterPort
}

// Module implements the shops service module
type Module struct {
	deps  modkit.Deps
	ports Ports
}

// New constructs a new shops module
func New(deps modkit.Deps) *Module {
	svc := service.New(deps.PG, repo.NewPG())
	return &Module{
		deps:  deps,
		ports: Ports{Reader: svc, Writer: svc},
	}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "shops" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module, shops has no public routes
func (m *Module) MountRoutes(r httpkit.Router) {}
