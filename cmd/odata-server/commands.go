// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AntiGuideAkquinet/odata.net/internal/config"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/archive"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/edm"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/modelcache"
	"github.com/AntiGuideAkquinet/odata.net/internal/odata/modelwatch"
	"github.com/AntiGuideAkquinet/odata.net/internal/logging"
	"github.com/AntiGuideAkquinet/odata.net/internal/service"
)

var (
	cfg        config.Config
	configPath string

	rootCmd = &cobra.Command{
		Use:   "odata-server",
		Short: "Serves an OData JSON payload engine over HTTP",
		Long: `odata-server hosts a push-based OData writer engine behind a small
read-only HTTP surface: entity sets, single resources, nested navigation,
and a $delta feed.`,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config.yaml")
	rootCmd.AddCommand(serveCmd)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(configPath)
		if err != nil {
			log.Fatalf("Error loading %s: %v", configPath, err)
		}
		cfg = *loaded
		log.Println("Configuration loaded successfully.")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New(logging.Config{
		Level:    parseLevel(cfg.Logging.Level),
		FilePath: cfg.Logging.FilePath,
		JSON:     cfg.Logging.JSON,
	})
	if err != nil {
		return fmt.Errorf("serve: building logger: %w", err)
	}

	shutdownTracing, err := setupTracing(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("serve: setting up tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	watcher, err := modelwatch.New(cfg.ModelPath, edm.LoadDocument, logger)
	if err != nil {
		return fmt.Errorf("serve: loading model: %w", err)
	}
	cache, err := modelcache.Open("")
	if err != nil {
		return fmt.Errorf("serve: opening model cache: %w", err)
	}
	defer cache.Close()
	watcher.OnReload = func(*edm.InMemoryModel) {
		if err := cache.Invalidate(); err != nil {
			logger.Error("model cache invalidation failed", "error", err)
		}
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("serve: watching model: %w", err)
	}
	defer watcher.Close()

	var archiveStore *archive.Store
	if cfg.Archive.Enabled {
		archiveStore, err = archive.Open(ctx, cfg.Archive.Bucket, cfg.Archive.KeyPrefix, "archive-credentials.json")
		if err != nil {
			return fmt.Errorf("serve: opening archive store: %w", err)
		}
		defer archiveStore.Close()
	}

	data := service.NewMemoryDataSource()
	registry := prometheus.NewRegistry()
	handler := service.NewHandler(modelwatch.ModelView{Watcher: watcher}, data, cache, archiveStore, registry)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: handler.Router("odata-server"),
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
