package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"fraudshield/internal/platform/config"
	"fraudshield/internal/platform/logger"
	phttp "fraudshield/internal/platform/net/http"
	"fraudshield/internal/platform/store"

	"fraudshield/internal/adapters/riskapi"
	"fraudshield/internal/adapters/storefront"
	"fraudshield/internal/services/api"

	"golang.org/x/sync/errgroup"
)

func main() {
	root := config.New()
	apiCfg := root.Prefix("FSBD_API_")
	pgCfg := root.Prefix("FSBD_PGSQL_")
	riskCfg := root.Prefix("FSBD_RISK_")

	logger.Init(logger.FromEnv())
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(
		ctx,
		store.Config{
			PG: store.PGConfig{
				Enabled:     true,
				URL:         pgCfg.MustString("DBURL"),
				MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 8)),
				SlowQueryMs: int64(pgCfg.MayInt("SLOW_MS", 250)),
			},
		},
		store.WithLogger(l),
	)
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer st.Close()
	st.Guard("pg")

	risk := riskapi.NewClient(riskapi.Options{
		BaseURL:       riskCfg.MustString("URL"),
		Token:         riskCfg.MayString("TOKEN", ""),
		Source:        riskCfg.MayString("SOURCE", "fraudshield"),
		ClientVersion: riskCfg.MayString("CLIENT_VERSION", "1.0.0"),
		Timeout:       riskCfg.MayDuration("TIMEOUT", 20*time.Second),
		CacheTTL:      riskCfg.MayDuration("CACHE_TTL", 5*time.Minute),
	})
	risk.StartSweeper(ctx)

	platform := storefront.NewClient(storefront.Options{
		Timeout: apiCfg.MayDuration("STOREFRONT_TIMEOUT", 10*time.Second),
	})

	srv := phttp.NewServer(apiCfg)
	queue := api.Mount(srv.Router(), api.Options{
		Config:   apiCfg,
		Store:    st,
		Logger:   l,
		Risk:     risk,
		Platform: platform,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return queue.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		l.Panic().Err(err).Msg("server stopped")
	}
	l.Info().Msg("shut down cleanly")
}
