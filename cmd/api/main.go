package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/soulsync/internal/api"
	"github.com/timmy/soulsync/internal/config"
	"github.com/timmy/soulsync/internal/llm"
	"github.com/timmy/soulsync/internal/logger"
	"github.com/timmy/soulsync/internal/pipeline"
	"github.com/timmy/soulsync/internal/repository"
	"github.com/timmy/soulsync/internal/service"
	"github.com/timmy/soulsync/internal/storage"
)

const (
	shutdownTimeout = 5 * time.Second
	requeueLimit    = 100
)

func main() {
	log := logger.NewDefault()
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}
	settings, err := cfg.Pipeline.Settings()
	if err != nil {
		log.WithError(err).Fatal("Invalid pipeline config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("Failed to get database handle")
	}
	defer sqlDB.Close()

	jobRepo := repository.NewJobRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)

	client, err := llm.NewClientFromConfig(&cfg.LLM)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize LLM client")
	}

	opts := []pipeline.Option{pipeline.WithQuoteStore(quoteRepo)}
	serviceCfg := &service.JobServiceConfig{StaleAfter: settings.StaleAfter}
	if cfg.Storage.Enabled {
		archive, err := storage.OpenReportArchive(context.Background(), &cfg.Storage)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize report archive")
		}
		opts = append(opts, pipeline.WithArchiver(archive))
		serviceCfg.Archive = archive
	}
	orch := pipeline.New(client, settings, jobRepo, opts...)

	worker := service.NewWorker(orch, &service.WorkerConfig{
		QueueSize:  settings.QueueSize,
		JobTimeout: settings.JobTimeout,
	})
	worker.Start(context.Background())

	jobService := service.NewJobService(jobRepo, quoteRepo, worker, serviceCfg)

	ctx := log.WithContext(context.Background())
	if _, err := jobService.RequeuePending(ctx, requeueLimit); err != nil {
		log.WithError(err).Warn("Failed to requeue pending jobs")
	}
	if stale, err := jobService.StaleJobs(ctx, requeueLimit); err != nil {
		log.WithError(err).Warn("Failed to list stale jobs")
	} else if len(stale) > 0 {
		log.WithField("job_ids", stale).Warn("Jobs left running by a previous process")
	}

	router := api.SetupRouter(api.RouterDeps{
		JobService: jobService,
		DBPing:     sqlDB.PingContext,
		Logger:     log,
	}, &cfg.Server)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.WithFields(logger.Fields{
			"port":  cfg.Server.Port,
			"mode":  cfg.Server.Mode,
			"model": client.GetModel(),
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	if err := worker.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("Worker stopped before the running job finished")
	}

	log.Info("Server exited")
}
