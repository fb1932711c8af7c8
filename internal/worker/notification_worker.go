package worker

// notification_worker.go
// Processes email jobs from QueueNotification through the SMTP circuit
// breaker. Statement delivery emails also flip the statement to "sent".

import (
	"context"
	"encoding/json"

	"github.com/agency73code/indigo-gestao-sub010/internal/infra"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"
	"github.com/agency73code/indigo-gestao-sub010/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NotificationJobPayload is the job envelope sent to QueueNotification.
type NotificationJobPayload struct {
	ToEmail        string  `json:"to_email"`
	Subject        string  `json:"subject"`
	Body           string  `json:"body"`
	AttachmentPath string  `json:"attachment_path,omitempty"`
	StatementID    *string `json:"statement_id,omitempty"`
}

type NotificationWorker struct {
	mailer     *infra.Mailer
	cb         *infra.CircuitBreaker
	statements repository.StatementRepository
}

// NewNotificationWorker wires the SMTP mailer behind the circuit breaker.
// statements may be nil when no statement bookkeeping is needed.
func NewNotificationWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, statements repository.StatementRepository) *NotificationWorker {
	return &NotificationWorker{mailer: mailer, cb: cb, statements: statements}
}

// Process sends one notification email. Returns false on failure so the
// pool's metrics record the error.
func (w *NotificationWorker) Process(ctx context.Context, raw json.RawMessage) bool {
	var payload NotificationJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("notification_worker: invalid payload")
		return false
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("notification_worker: empty to_email, skipping")
		return false
	}

	err := w.cb.Execute(func() error {
		return w.mailer.Send(payload.ToEmail, payload.Subject, payload.Body, payload.AttachmentPath)
	})
	if err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("notification_worker: failed to send email")
		return false
	}
	log.Info().Str("to", payload.ToEmail).Msg("notification_worker: email sent")

	if payload.StatementID != nil && w.statements != nil {
		w.markStatementSent(ctx, *payload.StatementID)
	}
	return true
}

func (w *NotificationWorker) markStatementSent(ctx context.Context, idStr string) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return
	}
	statement, err := w.statements.FindByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("statement_id", idStr).Msg("notification_worker: statement lookup failed")
		return
	}
	statement.Status = model.StatementSent
	if err := w.statements.Update(ctx, statement); err != nil {
		log.Warn().Err(err).Str("statement_id", idStr).Msg("notification_worker: failed to mark statement sent")
	}
}
