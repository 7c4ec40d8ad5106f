// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package main

import (
	"context"
	"fmt"

	"github.com/akarpov/go-alertsync/internal/adapter"
	"github.com/akarpov/go-alertsync/internal/config"
	"github.com/akarpov/go-alertsync/internal/handler"
	"github.com/akarpov/go-alertsync/internal/logger"
	"github.com/akarpov/go-alertsync/internal/server"
	"github.com/akarpov/go-alertsync/internal/service"
	"github.com/akarpov/go-alertsync/internal/store"
	"github.com/akarpov/go-alertsync/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("alertsync")
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx := context.Background()

	recordStore, err := store.NewRecordStore(ctx, cfg.Storage.DSN, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating record store")
	}

	strategy, err := service.ParseStrategy(cfg.Sync.DefaultStrategy)
	if err != nil {
		log.Fatal().Err(err).Msg("error parsing default conflict strategy")
	}

	resolver := service.NewConflictResolver(log)
	engine := service.NewSyncEngine(
		recordStore,
		service.NewChangeTracker(),
		resolver,
		service.EngineConfig{
			DeleteBatchSize:    cfg.Sync.DeleteBatchSize,
			AddBatchSize:       cfg.Sync.AddBatchSize,
			UpdateBatchSize:    cfg.Sync.UpdateBatchSize,
			MaxRetries:         cfg.Sync.MaxRetries,
			DefaultStrategy:    strategy,
			Atomic:             cfg.Sync.Atomic,
			ValidatePayloads:   cfg.Sync.ValidatePayloads,
			OffloadThreshold:   cfg.Sync.OffloadThreshold,
			OffloadPingTimeout: cfg.Sync.OffloadPingTimeout,
		},
		log,
	)
	engine.SetOffloader(service.NewTaskOffloader(resolver, log))

	remote := adapter.NewHTTPRemoteSource(adapter.HTTPClientConfig{
		BaseURL: cfg.Remote.BaseURL,
		Timeout: cfg.Remote.RequestTimeout,
	})

	syncJob := workers.NewSyncJob(remote, engine, recordStore, cfg.Workers.SyncInterval, log)
	workers.NewWorkers(syncJob).Run()

	handlers, err := handler.NewHandlers(engine, recordStore, buildVersion, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
	syncJob.Stop()
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
