package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MKhiriev/go-doc-sync/internal/adapter"
	"github.com/MKhiriev/go-doc-sync/internal/config"
	"github.com/MKhiriev/go-doc-sync/internal/logger"
	"github.com/MKhiriev/go-doc-sync/internal/netmon"
	"github.com/MKhiriev/go-doc-sync/internal/registry"
	"github.com/MKhiriev/go-doc-sync/internal/resolver"
	"github.com/MKhiriev/go-doc-sync/internal/syncer"
	"github.com/MKhiriev/go-doc-sync/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("syncd")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	remote := adapter.NewHTTPRemoteStore(adapter.HTTPClientConfig{
		BaseURL:      cfg.Remote.BaseURL,
		Token:        cfg.Remote.Token,
		Timeout:      cfg.Remote.RequestTimeout,
		ProbeTimeout: cfg.Remote.ProbeTimeout,
	})

	monitor := netmon.NewMonitor(remote.Probe, cfg.Network.CheckInterval, cfg.Network.Debounce, log)

	stores := registry.New(
		cfg.Storage.Local.Dir,
		remote,
		monitor,
		resolver.NewLastWriterWins(),
		syncer.Config{
			BatchSize:     cfg.Sync.BatchSize,
			BatchTimeout:  cfg.Sync.BatchTimeout,
			PullInterval:  cfg.Sync.PullInterval,
			RetryAttempts: cfg.Sync.RetryAttempts,
			RetryBase:     cfg.Sync.RetryBase,
			RetryCap:      cfg.Sync.RetryCap,
		},
		log,
	)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	// Collections are independent: one failing to open must not stop the
	// rest, so the error is logged and the daemon keeps running.
	if err := stores.StartAll(ctx, cfg.App.Collections); err != nil {
		log.Error().Err(err).Msg("some collections failed to start")
	}

	background := workers.NewWorkers(monitor)
	background.Start(ctx)

	<-ctx.Done()
	log.Info().Msg("shutting down")

	background.Stop()
	if err := stores.Close(); err != nil {
		log.Error().Err(err).Msg("error closing collections")
	}

	log.Info().Msg("syncd shut down gracefully")
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
