// Package api composes the application's HTTP surface
package api

import (
	"fraudshield/internal/platform/config"
	"fraudshield/internal/platform/logger"
	phttp "fraudshield/internal/platform/net/http"
	"fraudshield/internal/platform/store"

	"fraudshield/internal/modkit"
	"fraudshield/internal/modkit/httpkit"
	"fraudshield/internal/modkit/module"

	"fraudshield/internal/adapters/riskapi"
	"fraudshield/internal/adapters/storefront"

	adminmod "fraudshield/internal/services/admin/module"
	checkmod "fraudshield/internal/services/check/module"
	checksvc "fraudshield/internal/services/check/service"
	shopsmod "fraudshield/internal/services/shops/module"
	webhookmod "fraudshield/internal/services/webhook/module"
)

// Options are the API options
type Options struct {
	Config config.Conf
	Store  *store.Store
	Logger *logger.Logger

	Risk     *riskapi.Client
	Platform *storefront.Client
}

// Mount wires every module onto the given router and returns the check
// queue so main can run its workers
func Mount(r phttp.Router, opt Options) *checksvc.Queue {
	deps := modkit.Deps{
		Log: opt.Logger,
		Cfg: opt.Config,
		PG:  opt.Store.PG,
	}

	// shops first, everything else depends on its ports
	shops := shopsmod.New(deps)
	shopPorts := shops.Ports().(shopsmod.Ports)

	check := checkmod.New(deps, checkmod.Adapters{
		Risk:     opt.Risk,
		Platform: opt.Platform,
		Shops:    shopPorts.Reader,
	})
	checkPorts := check.Ports().(checkmod.Ports)

	webhooks := webhookmod.New(deps, webhookmod.Deps{
		Enqueuer: checkPorts.Enqueuer,
		Shops:    shopPorts.Writer,
	})

	admin := adminmod.New(deps, adminmod.Deps{
		Checker: checkPorts.Checker,
		Risk:    opt.Risk,
		Reader:  shopPorts.Reader,
		Writer:  shopPorts.Writer,
	})

	mods := []module.Module{shops, check, webhooks, admin}

	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(apiRouter httpkit.Router) {
		for _, m := range mods {
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(apiRouter)
		}
	})

	return check.Queue()
}
