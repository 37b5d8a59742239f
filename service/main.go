package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"msgbus"
	"msgbus/internal/app"
	"msgbus/internal/cache"
	"msgbus/internal/config"
	"msgbus/internal/httpapi"
	"msgbus/internal/logging"
	"msgbus/internal/metrics"
	"msgbus/internal/relay"
	"msgbus/internal/storage"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	must(err)
	logging.Init(cfg.LogLevel)
	log := logging.L()

	ctx := context.Background()

	prom := metrics.NewProm()
	bus := msgbus.NewBus(cfg.Bus.Name,
		msgbus.WithLogger(log),
		msgbus.WithObserver(prom),
	)

	store, err := storage.NewPostgres(ctx, cfg.Postgres.URL)
	must(err)
	defer store.Close()

	orders := cache.New(cfg.Cache.Capacity)

	application := &app.App{Store: store, Cache: orders, Bus: bus}
	must(application.Subscribe())
	must(application.RestoreCache(ctx))

	src, err := relay.NewStan(cfg.Stan.Cluster, cfg.Stan.Client, cfg.Stan.URL, cfg.Stan.Durable)
	must(err)
	rly := relay.New(bus, src)
	must(rly.Start(cfg.Stan.Subject))

	srv := httpapi.New(orders, store, prom.Handler())
	go func() { must(srv.Listen(cfg.HTTP.Addr)) }()

	waitForCtrlC()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	rly.Close()
	bus.Shutdown()
	log.Info("bye")
}

func must(err error) {
	if err != nil {
		logging.L().Fatal(err)
	}
}

func waitForCtrlC() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch
}
