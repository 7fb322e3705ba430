package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/timmy/soulsync/internal/config"
	"github.com/timmy/soulsync/internal/domain"
	"github.com/timmy/soulsync/internal/llm"
	"github.com/timmy/soulsync/internal/logger"
	"github.com/timmy/soulsync/internal/pipeline"
	"github.com/timmy/soulsync/internal/repository"
	"github.com/timmy/soulsync/internal/storage"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "soulsync-worker",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	jobID := flag.String("job", "", "ID of an existing pending job to run")
	blueprintPath := flag.String("blueprint", "", "Blueprint JSON file; creates a new job and runs it")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if (*jobID == "") == (*blueprintPath == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -job or -blueprint is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}
	settings, err := cfg.Pipeline.Settings()
	if err != nil {
		appLogger.WithError(err).Fatal("Invalid pipeline config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	jobRepo := repository.NewJobRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)

	client, err := llm.NewClientFromConfig(&cfg.LLM)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize LLM client")
	}

	// Interrupts cancel the run; the orchestrator still records the failure.
	ctx, cancel := context.WithTimeout(context.Background(), settings.JobTimeout)
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		appLogger.Info("Received interrupt, cancelling job...")
		cancel()
	}()

	if *blueprintPath != "" {
		data, err := os.ReadFile(*blueprintPath)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to read blueprint")
		}
		bp := domain.Blueprint(data)
		if err := bp.Validate(); err != nil {
			appLogger.WithError(err).Fatal("Invalid blueprint")
		}
		*jobID = uuid.New().String()
		if err := jobRepo.Create(ctx, &domain.ReportJob{ID: *jobID, Blueprint: bp}); err != nil {
			appLogger.WithError(err).Fatal("Failed to create job")
		}
	}

	appLogger.WithFields(logger.Fields{
		logger.FieldJobID: *jobID,
		"model":           client.GetModel(),
	}).Info("Starting job")

	opts := []pipeline.Option{pipeline.WithQuoteStore(quoteRepo)}
	if cfg.Storage.Enabled {
		archive, err := storage.OpenReportArchive(ctx, &cfg.Storage)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize report archive")
		}
		opts = append(opts, pipeline.WithArchiver(archive))
	}

	orch := pipeline.New(client, settings, jobRepo, opts...)
	if err := orch.Run(ctx, *jobID); err != nil {
		appLogger.WithError(err).Fatal("Job did not reach a terminal state")
	}

	job, err := jobRepo.Get(context.Background(), *jobID)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load job")
	}

	out, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to encode job")
	}
	fmt.Println(string(out))

	if job.Status != domain.JobStatusCompleted {
		os.Exit(1)
	}
}
