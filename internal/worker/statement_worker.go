package worker

// statement_worker.go
// Processes statement generation jobs from QueueStatement: aggregates the
// therapist's approved billing entries for the period, renders the PDF, and
// optionally enqueues the delivery email.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/infra"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"
	"github.com/agency73code/indigo-gestao-sub010/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MaxStatementRetries before a statement lands in the DLQ.
const MaxStatementRetries = 3

// StatementJobPayload is the job envelope sent to QueueStatement.
type StatementJobPayload struct {
	StatementID string  `json:"statement_id"`
	Email       *string `json:"email,omitempty"`
}

type StatementWorker struct {
	statements  repository.StatementRepository
	entries     repository.BillingRepository
	therapists  repository.TherapistRepository
	dispatcher  *Dispatcher
	storagePath string
}

func NewStatementWorker(
	statements repository.StatementRepository,
	entries repository.BillingRepository,
	therapists repository.TherapistRepository,
	dispatcher *Dispatcher,
	storagePath string,
) *StatementWorker {
	return &StatementWorker{
		statements:  statements,
		entries:     entries,
		therapists:  therapists,
		dispatcher:  dispatcher,
		storagePath: storagePath,
	}
}

// Process handles a single statement job. Returns false when generation
// failed and the retry cron should pick the statement up later.
func (w *StatementWorker) Process(ctx context.Context, raw json.RawMessage) bool {
	var payload StatementJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("statement_worker: invalid payload")
		return false
	}

	id, err := uuid.Parse(payload.StatementID)
	if err != nil {
		log.Error().Str("statement_id", payload.StatementID).Msg("statement_worker: invalid statement_id")
		return false
	}

	statement, err := w.statements.FindByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("statement_id", payload.StatementID).Msg("statement_worker: statement not found")
		return false
	}

	if err := w.Generate(ctx, statement, payload.Email); err != nil {
		log.Error().Err(err).Str("statement_id", payload.StatementID).Msg("statement_worker: generation failed")
		return false
	}
	return true
}

// Generate aggregates, renders and persists one statement. Shared with the
// retry cron. Failure updates the retry bookkeeping before returning.
func (w *StatementWorker) Generate(ctx context.Context, statement *model.Statement, email *string) error {
	therapist, err := w.therapists.FindByID(ctx, statement.TherapistID)
	if err != nil {
		return w.markFailure(ctx, statement, fmt.Errorf("therapist not found: %w", err))
	}

	from, err := time.Parse("2006-01", statement.Period)
	if err != nil {
		return w.markFailure(ctx, statement, fmt.Errorf("invalid period %q: %w", statement.Period, err))
	}
	to := from.AddDate(0, 1, 0)

	entries, err := w.entries.ListApprovedForPeriod(ctx, statement.TherapistID, from, to)
	if err != nil {
		return w.markFailure(ctx, statement, fmt.Errorf("list entries: %w", err))
	}

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	statement.Entries = len(entries)
	statement.Total = total

	pdfPath, err := infra.GenerateStatementPDF(therapist.Name, statement, entries, w.storagePath)
	if err != nil {
		return w.markFailure(ctx, statement, fmt.Errorf("render pdf: %w", err))
	}

	statement.Status = model.StatementGenerated
	statement.PDFPath = &pdfPath
	statement.NextRetryAt = nil
	statement.LastError = nil
	if err := w.statements.Update(ctx, statement); err != nil {
		return err
	}

	log.Info().
		Str("statement_id", statement.ID.String()).
		Str("period", statement.Period).
		Int("entries", statement.Entries).
		Str("total", statement.Total.StringFixed(2)).
		Msg("statement_worker: statement generated")

	if email != nil && *email != "" && w.dispatcher != nil {
		stID := statement.ID.String()
		job := NotificationJobPayload{
			ToEmail: *email,
			Subject: fmt.Sprintf("Monthly statement %s - %s", statement.Period, therapist.Name),
			Body: fmt.Sprintf("Attached is the monthly statement for %s.\nEntries: %d\nTotal: R$ %s",
				statement.Period, statement.Entries, statement.Total.StringFixed(2)),
			AttachmentPath: pdfPath,
			StatementID:    &stID,
		}
		if err := w.dispatcher.EnqueueNotification(ctx, job); err != nil {
			log.Warn().Err(err).Str("statement_id", stID).Msg("statement_worker: failed to enqueue delivery email")
		}
	}
	return nil
}

// markFailure records the error and schedules the next retry; the statement
// moves to error state so the cron's partial index finds it.
func (w *StatementWorker) markFailure(ctx context.Context, statement *model.Statement, cause error) error {
	statement.RetryCount++
	statement.Status = model.StatementError
	msg := cause.Error()
	statement.LastError = &msg

	if statement.RetryCount >= MaxStatementRetries {
		statement.NextRetryAt = nil
	} else {
		next := time.Now().Add(retryBackoff(statement.RetryCount))
		statement.NextRetryAt = &next
	}

	if err := w.statements.Update(ctx, statement); err != nil {
		log.Error().Err(err).Str("statement_id", statement.ID.String()).Msg("statement_worker: failed to record failure")
	}
	return cause
}

// retryBackoff returns the wait before retry n: 1m, 2m, 4m … capped at 10m.
func retryBackoff(retryCount int) time.Duration {
	d := time.Minute << uint(retryCount-1)
	if d > 10*time.Minute {
		d = 10 * time.Minute
	}
	return d
}
