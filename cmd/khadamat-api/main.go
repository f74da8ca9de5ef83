// README: Entry point; loads config, wires stores and services, serves the pricing API until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"khadamat/internal/config"
	httptransport "khadamat/internal/http"
	"khadamat/internal/infra"
	"khadamat/internal/logger"
	"khadamat/internal/maps"
	"khadamat/internal/modules/location"
	"khadamat/internal/modules/matching"
	"khadamat/internal/modules/pricing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.IsProduction(), cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("khadamat-api stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	rates, err := pricing.NewRateProvider(pricing.RatesFromConfig(cfg.Pricing))
	if err != nil {
		return err
	}

	var (
		catalog   pricing.Catalog
		rateStore pricing.RateStore
		providers matching.ProviderSource
		positions matching.PositionSource
		geocoder  matching.Geocoder
		locations *location.Service
	)

	if cfg.DB.DSN != "" {
		db, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		store := pricing.NewStore(db)
		catalog, rateStore = store, store
		providers = matching.NewStore(db)
	} else {
		log.Warn("no database configured, serving the demo catalogue from memory")
		catalog = pricing.NewMemoryCatalog(demoServices()...)
		providers = matching.NewMemoryProviders(demoProviders()...)
	}

	if cfg.Redis.Addr != "" {
		rc, err := infra.NewRedis(ctx, cfg.Redis.Addr)
		if err != nil {
			return err
		}
		defer rc.Close()
		locations = location.NewService(location.NewStore(rc), log.Named("location"))
		positions = locations
	}

	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocoder(cfg.Maps.APIKey, cfg.Maps.Region)
		if err != nil {
			return err
		}
		geocoder = g
	}

	pricingSvc := pricing.NewService(catalog, rates, rateStore, log.Named("pricing"))
	if err := pricingSvc.LoadRates(ctx); err != nil {
		return err
	}
	matchingSvc := matching.NewService(matching.ServiceDeps{
		Providers: providers,
		Positions: positions,
		Geocoder:  geocoder,
		Pricing:   pricingSvc,
		Config:    cfg.Search,
		Logger:    log.Named("matching"),
	})

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Pricing:  pricingSvc,
		Matching: matchingSvc,
		Location: locations,
		Config:   cfg,
		Logger:   log,
	})
	current := pricingSvc.Rates()
	log.Info("pricing ready",
		zap.Int64("rates_version", current.Version),
		zap.String("currency", current.Currency),
		zap.Bool("live_positions", locations != nil),
		zap.Bool("geocoding", geocoder != nil),
	)
	return httptransport.NewServer(cfg.HTTP.Addr, router, log).Run(ctx)
}
