package worker

// retry_cron.go
// Background goroutine that periodically re-attempts statement generations
// stuck in status='error' with a next_retry_at in the past. Statements that
// exhaust their retries land in the DLQ for manual inspection.

import (
	"context"
	"fmt"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Statements repository.StatementRepository
	Worker     *StatementWorker
	RDB        *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries due statements, and re-runs generation. It respects the context
// for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	now := time.Now()
	statements, err := cfg.Statements.ListDueRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query due statements")
		return
	}
	if len(statements) == 0 {
		return
	}

	log.Info().Int("count", len(statements)).Msg("retry_cron: re-attempting failed statements")

	for i := range statements {
		statement := &statements[i]

		if err := cfg.Worker.Generate(ctx, statement, nil); err != nil {
			if statement.RetryCount >= MaxStatementRetries {
				log.Error().
					Str("statement_id", statement.ID.String()).
					Int("retries", statement.RetryCount).
					Msg("retry_cron: max retries exceeded, moving to DLQ")

				payload := fmt.Sprintf(`{"statement_id":"%s"}`, statement.ID)
				SendToDLQ(ctx, cfg.RDB, QueueStatement, "statement", []byte(payload),
					fmt.Sprintf("max retries (%d) exceeded: %v", MaxStatementRetries, err),
					statement.RetryCount)
			} else {
				log.Warn().
					Str("statement_id", statement.ID.String()).
					Int("retry_count", statement.RetryCount).
					Msg("retry_cron: generation failed again, next attempt scheduled")
			}
			continue
		}

		log.Info().
			Str("statement_id", statement.ID.String()).
			Int("total_retries", statement.RetryCount).
			Msg("retry_cron: statement generated after retry")
	}
}
