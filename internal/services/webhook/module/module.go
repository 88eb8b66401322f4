// Package module wires webhook ingestion into modkit
package module

import (
	"fraudshield/internal/modkit"
	"fraudshield/internal/modkit/httpkit"
	str "fraudshield/internal/platform/strings"
	checkdom "fraudshield/internal/services/check/domain"
	"fraudshield/internal/services/shops/domain"
	whhttp "fraudshield/internal/services/webhook/http"
)

// Deps are the cross-module ports webhooks need
type Deps struct {
	Enqueuer checkdom.EnqueuerPort
	Shops    domain.WriterPort
}

// Module implements the webhook module
type Module struct {
	deps     modkit.Deps
	prefix   string
	handlers *whhttp.Handlers
}

// New constructs a new webhook module
func New(deps modkit.Deps, wd Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("webhook"),
		modkit.WithPrefix("/webhooks"),
	}, opts...)...)

	secret := deps.Cfg.MustString("WEBHOOK_SECRET")
	return &Module{
		deps:     deps,
		prefix:   str.MustPrefix(b.Prefix),
		handlers: whhttp.New(secret, wd.Enqueuer, wd.Shops),
	}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "webhook" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(sub httpkit.Router) {
		whhttp.Register(sub, m.handlers)
	})
}
