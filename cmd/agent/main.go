package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"photobooth/agent/internal/config"
	"photobooth/agent/internal/database"
	"photobooth/agent/internal/handlers"
	"photobooth/agent/internal/ingest"
	"photobooth/agent/internal/jobs"
	"photobooth/agent/internal/log"
	"photobooth/agent/internal/printer"
	"photobooth/agent/internal/render"
	"photobooth/agent/internal/repository"
	"photobooth/agent/internal/server"
	"photobooth/agent/internal/syncer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	for _, dir := range cfg.Directories() {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Str("dir", dir).Msg("failed to create directory")
		}
	}

	db, err := database.Open(cfg.DatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := repository.NewSessionRepository(db)
	assets := repository.NewMediaRepository(db)
	projects := repository.NewProjectRepository(db)
	templates := repository.NewTemplateRepository(db)
	brands := repository.NewBrandRepository(db)
	printJobs := repository.NewPrintJobRepository(db)
	shares := repository.NewShareLinkRepository(db)

	if err := repository.SeedDefaults(ctx, templates, brands); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed reference data")
	}

	composer := render.NewComposer(cfg.Paths.Renders, cfg.Paths.Media, logger)
	renderer := render.NewService(projects, templates, brands, assets, shares, composer, logger)

	dispatcher := printer.NewDispatcher(printJobs, projects, printer.NewSpoolAdapter(logger), cfg.Printer.Name, logger)

	syncClient := syncer.NewClient(cfg.Cloud.BaseURL, cfg.Cloud.Token, cfg.Cloud.Timeout)
	reconciler := syncer.NewReconciler(sessions, assets, projects, shares, syncClient, logger)

	pipeline := ingest.NewPipeline(sessions, assets, cfg.Booth.ID, cfg.Paths.Media, cfg.Paths.Previews, logger)
	watcher := ingest.NewWatcher(cfg.Paths.Watched, pipeline, logger)
	if err := watcher.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start media watcher")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, db, renderer, dispatcher, reconciler)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(reconciler, cfg.Sync.Schedule, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(ctx, logger, httpServer, scheduler, db)
}

func waitForShutdown(ctx context.Context, logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *database.DB) {
	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	if err := db.Close(); err != nil {
		logger.Error().Err(err).Msg("store close error")
	}

	logger.Info().Msg("agent exited cleanly")
}
