package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/config"
	"github.com/agency73code/indigo-gestao-sub010/internal/infra"
	"github.com/agency73code/indigo-gestao-sub010/internal/middleware"
	"github.com/agency73code/indigo-gestao-sub010/internal/repository"
	"github.com/agency73code/indigo-gestao-sub010/internal/router"
	"github.com/agency73code/indigo-gestao-sub010/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	attachmentStore, err := infra.NewFileStore(cfg.AttachmentStoragePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create attachment storage")
	}
	if err := os.MkdirAll(cfg.StatementStoragePath, 0o755); err != nil {
		log.Fatal().Err(err).Msg("failed to create statement storage")
	}

	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	metrics := middleware.NewMetrics()

	// Worker pool for async jobs (statement generation, email delivery).
	// Handlers are wired here, at the composition root, so the pool has
	// full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := worker.NewDispatcher(rdb)
	statementRepo := repository.NewStatementRepository(db)
	billingRepo := repository.NewBillingRepository(db)
	therapistRepo := repository.NewTherapistRepository(db)

	statementWorker := worker.NewStatementWorker(statementRepo, billingRepo, therapistRepo, dispatcher, cfg.StatementStoragePath)
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, worker.Handlers{
		Statement:    statementWorker,
		Notification: worker.NewNotificationWorker(mailer, smtpCB, statementRepo),
		Metrics:      metrics,
	})
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		Statements: statementRepo,
		Worker:     statementWorker,
		RDB:        rdb,
	})

	r := router.New(cfg, db, rdb, smtpCB, metrics, dispatcher, attachmentStore)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("indigo backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
