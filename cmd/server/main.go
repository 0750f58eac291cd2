package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worklane/internal/api"
	"worklane/internal/app"
	"worklane/internal/config"
	"worklane/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Logger.Fatalf("config: %v", err)
	}
	if err := logging.Init("worklane", cfg.Log); err != nil {
		logging.Logger.Fatalf("logging: %v", err)
	}
	log := logging.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		log.Fatalf("open %s store: %v", cfg.Store, err)
	}
	defer stores.Close()

	rt, err := app.Build(cfg, stores, log)
	if err != nil {
		log.Fatalf("build: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.New(rt.Engine, rt.Gate, log, api.Options{Store: cfg.Store, Members: rt.Members}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithField("store", cfg.Store).Infof("worklane listening on %s", cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("listen: %v", err)
	}
	log.Info("worklane stopped")
}
