// Package module wires the admin surface into modkit
package module

import (
	"fraudshield/internal/modkit"
	"fraudshield/internal/modkit/httpkit"
	str "fraudshield/internal/platform/strings"
	adminhttp "fraudshield/internal/services/admin/http"
	checkdom "fraudshield/internal/services/check/domain"
	shopsdom "fraudshield/internal/services/shops/domain"
)

// Deps are the cross-module ports admin needs
type Deps struct {
	Checker checkdom.CheckerPort
	Risk    checkdom.RiskPort
	Reader  shopsdom.ReaderPort
	Writer  shopsdom.WriterPort
}

// Module implements the admin module
type Module struct {
	deps     modkit.Deps
	prefix   string
	auth     adminhttp.BearerAuth
	handlers *adminhttp.Handlers
}

// New constructs a new admin module
func New(deps modkit.Deps, ad Deps, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("admin"),
		modkit.WithPrefix("/admin"),
	}, opts...)...)

	return &Module{
		deps:     deps,
		prefix:   str.MustPrefix(b.Prefix),
		auth:     adminhttp.BearerAuth{Token: deps.Cfg.MustString("ADMIN_TOKEN")},
		handlers: adminhttp.New(ad.Checker, ad.Risk, ad.Reader, ad.Writer),
	}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return "admin" }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return nil }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(sub httpkit.Router) {
		sub.Use(httpkit.Auth(m.auth))
		adminhttp.Register(sub, m.handlers)
	})
}
