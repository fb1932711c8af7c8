package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/agency73code/indigo-gestao-sub010/internal/billing"
	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/infra"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"
	"github.com/agency73code/indigo-gestao-sub010/internal/repository"
	"github.com/agency73code/indigo-gestao-sub010/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrConflict signals a status transition raced with another actor; the
// handler answers 409.
var ErrConflict = errors.New("entry was modified concurrently")

// AttachmentUpload is one uploaded file handed down from the multipart
// handler.
type AttachmentUpload struct {
	FileName string
	Reader   io.Reader
}

type BillingService interface {
	Create(ctx context.Context, actor Actor, req dto.CreateBillingEntryRequest) (*dto.BillingEntryResponse, error)
	Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.BillingEntryResponse, error)
	List(ctx context.Context, actor Actor, filter dto.BillingFilter) (*dto.BillingListResponse, error)
	Approve(ctx context.Context, actor Actor, id uuid.UUID) (*dto.BillingEntryResponse, error)
	Reject(ctx context.Context, actor Actor, id uuid.UUID, req dto.RejectBillingRequest) (*dto.BillingEntryResponse, error)
	Correct(ctx context.Context, actor Actor, id uuid.UUID, req dto.CorrectBillingRequest, uploads []AttachmentUpload) (*dto.BillingEntryResponse, error)
	BulkApprove(ctx context.Context, actor Actor, req dto.BulkApproveRequest) (*dto.BulkApproveResponse, error)
	AttachmentPath(ctx context.Context, actor Actor, entryID, attachmentID uuid.UUID) (path, fileName string, err error)
	GenerateStatement(ctx context.Context, actor Actor, req dto.GenerateStatementRequest) (*dto.StatementResponse, error)
	GetStatement(ctx context.Context, id uuid.UUID) (*dto.StatementResponse, error)
	ListStatements(ctx context.Context, actor Actor, therapistID string, page, limit int) ([]dto.StatementResponse, int64, error)
	StatementPDFPath(ctx context.Context, id uuid.UUID) (string, error)
}

type billingService struct {
	entries    repository.BillingRepository
	statements repository.StatementRepository
	therapists repository.TherapistRepository
	store      *infra.FileStore
	dispatcher *worker.Dispatcher
}

// NewBillingService wires the billing workflow. store and dispatcher may be
// nil in unit tests; statement generation then degrades to an error.
func NewBillingService(
	entries repository.BillingRepository,
	statements repository.StatementRepository,
	therapists repository.TherapistRepository,
	store *infra.FileStore,
	dispatcher *worker.Dispatcher,
) BillingService {
	return &billingService{
		entries:    entries,
		statements: statements,
		therapists: therapists,
		store:      store,
		dispatcher: dispatcher,
	}
}

func (s *billingService) Create(ctx context.Context, actor Actor, req dto.CreateBillingEntryRequest) (*dto.BillingEntryResponse, error) {
	attendance := billing.AttendanceType(req.AttendanceType)
	violations := billing.ValidateSchedule(billing.Schedule{
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		AttendanceType:    attendance,
		CostReimbursement: req.CostReimbursement,
	})
	if len(violations) > 0 {
		return nil, &FieldViolations{Fields: violations}
	}

	sessionDate, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		return nil, errors.New("invalid session date")
	}

	amount, units, err := s.price(ctx, actor.UserID, attendance, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	entry := &model.BillingEntry{
		TherapistID:       actor.UserID,
		SessionDate:       sessionDate,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		AttendanceType:    req.AttendanceType,
		CostReimbursement: req.CostReimbursement,
		Amount:            amount,
		Units:             units,
		Status:            model.BillingPending,
	}
	if req.ClientID != nil {
		cid, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, errors.New("invalid client id")
		}
		entry.ClientID = &cid
	}

	// The entry and its audit row must appear together or not at all.
	transition := &model.BillingTransition{Action: "created", ActorID: actor.UserID}
	if db := s.entries.DB(); db != nil {
		err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.entries.CreateTx(ctx, tx, entry); err != nil {
				return err
			}
			transition.EntryID = entry.ID
			return s.entries.AddTransitionTx(ctx, tx, transition)
		})
	} else {
		// Fake repositories have no transaction support.
		if err = s.entries.CreateTx(ctx, nil, entry); err == nil {
			transition.EntryID = entry.ID
			err = s.entries.AddTransitionTx(ctx, nil, transition)
		}
	}
	if err != nil {
		return nil, err
	}
	return entryToResponse(entry), nil
}

func (s *billingService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*dto.BillingEntryResponse, error) {
	entry, err := s.findVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return entryToResponse(entry), nil
}

func (s *billingService) List(ctx context.Context, actor Actor, filter dto.BillingFilter) (*dto.BillingListResponse, error) {
	// Below coordinator level every therapist sees only their own entries.
	if actor.AccessLevel < 5 {
		filter.TherapistID = actor.UserID.String()
	}

	entries, total, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.BillingListResponse{
		Data:  make([]dto.BillingEntryResponse, len(entries)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range entries {
		resp.Data[i] = *entryToResponse(&entries[i])
	}
	return resp, nil
}

// Approve flips pending → approved. The conditional update makes the race
// explicit: if another reviewer got there first, zero rows change and the
// caller sees a conflict instead of a silent double transition.
func (s *billingService) Approve(ctx context.Context, actor Actor, id uuid.UUID) (*dto.BillingEntryResponse, error) {
	rows, err := s.entries.TransitionStatus(ctx, id, model.BillingPending, model.BillingApproved, nil,
		&model.BillingTransition{
			EntryID: id,
			Action:  "approved",
			ActorID: actor.UserID,
		})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrConflict
	}

	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return entryToResponse(entry), nil
}

func (s *billingService) Reject(ctx context.Context, actor Actor, id uuid.UUID, req dto.RejectBillingRequest) (*dto.BillingEntryResponse, error) {
	rows, err := s.entries.TransitionStatus(ctx, id, model.BillingPending, model.BillingRejected,
		map[string]interface{}{"rejection_reason": req.Reason},
		&model.BillingTransition{
			EntryID: id,
			Action:  "rejected",
			ActorID: actor.UserID,
			Note:    &req.Reason,
		})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrConflict
	}

	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifyRejection(ctx, entry, req.Reason)
	return entryToResponse(entry), nil
}

// Correct applies the therapist's fixes to a rejected entry and resubmits it
// as pending. Only the entry's own therapist may correct it.
func (s *billingService) Correct(ctx context.Context, actor Actor, id uuid.UUID, req dto.CorrectBillingRequest, uploads []AttachmentUpload) (*dto.BillingEntryResponse, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("billing entry not found")
	}
	if entry.TherapistID != actor.UserID {
		return nil, ErrForbidden
	}
	if entry.Status != model.BillingRejected {
		return nil, errors.New("only rejected entries can be corrected")
	}

	// Merge corrected fields over the current values before re-validating.
	startTime := entry.StartTime
	endTime := entry.EndTime
	attendanceType := entry.AttendanceType
	costReimbursement := entry.CostReimbursement
	if req.StartTime != "" {
		startTime = req.StartTime
	}
	if req.EndTime != "" {
		endTime = req.EndTime
	}
	if req.AttendanceType != "" {
		attendanceType = req.AttendanceType
	}
	if req.CostReimbursement != nil {
		costReimbursement = req.CostReimbursement
	}

	attendance := billing.AttendanceType(attendanceType)
	violations := billing.ValidateSchedule(billing.Schedule{
		StartTime:         startTime,
		EndTime:           endTime,
		AttendanceType:    attendance,
		CostReimbursement: costReimbursement,
	})
	if len(violations) > 0 {
		return nil, &FieldViolations{Fields: violations}
	}

	amount, units, err := s.price(ctx, entry.TherapistID, attendance, startTime, endTime)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"start_time":       startTime,
		"end_time":         endTime,
		"attendance_type":  attendanceType,
		"amount":           amount,
		"units":            units,
		"rejection_reason": nil,
	}
	if req.SessionDate != "" {
		sessionDate, err := time.Parse("2006-01-02", req.SessionDate)
		if err != nil {
			return nil, errors.New("invalid session date")
		}
		fields["session_date"] = sessionDate
	}
	if req.CostReimbursement != nil {
		fields["cost_reimbursement"] = *req.CostReimbursement
	}

	rows, err := s.entries.TransitionStatus(ctx, id, model.BillingRejected, model.BillingPending, fields,
		&model.BillingTransition{
			EntryID: id,
			Action:  "corrected",
			ActorID: actor.UserID,
			Note:    req.Note,
		})
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrConflict
	}

	for _, attID := range req.RemoveAttachments {
		aid, err := uuid.Parse(attID)
		if err != nil {
			continue
		}
		att, err := s.entries.FindAttachment(ctx, id, aid)
		if err != nil {
			continue
		}
		if s.store != nil {
			if err := s.store.Remove(att.Key); err != nil {
				log.Warn().Err(err).Str("entry_id", id.String()).Str("key", att.Key).Msg("billing: attachment file removal failed")
			}
		}
		if err := s.entries.RemoveAttachment(ctx, id, aid); err != nil {
			log.Warn().Err(err).Str("entry_id", id.String()).Str("attachment_id", aid.String()).Msg("billing: attachment record removal failed")
		}
	}
	for _, up := range uploads {
		if err := s.saveAttachment(ctx, id, up); err != nil {
			log.Warn().Err(err).Str("entry_id", id.String()).Str("file", up.FileName).Msg("billing: attachment save failed")
		}
	}

	entry, err = s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return entryToResponse(entry), nil
}

// BulkApprove processes entries one by one and never aborts the batch: the
// response carries a per-entry result so the reviewer can see exactly which
// approvals went through.
func (s *billingService) BulkApprove(ctx context.Context, actor Actor, req dto.BulkApproveRequest) (*dto.BulkApproveResponse, error) {
	resp := &dto.BulkApproveResponse{Results: make([]dto.BulkApproveResult, 0, len(req.EntryIDs))}

	for _, idStr := range req.EntryIDs {
		result := dto.BulkApproveResult{EntryID: idStr}

		id, err := uuid.Parse(idStr)
		if err != nil {
			msg := "invalid entry id"
			result.Error = &msg
		} else if _, err := s.Approve(ctx, actor, id); err != nil {
			msg := err.Error()
			if errors.Is(err, ErrConflict) {
				msg = "entry is not pending"
			}
			result.Error = &msg
		} else {
			result.OK = true
		}

		if result.OK {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
		resp.Results = append(resp.Results, result)
	}
	return resp, nil
}

func (s *billingService) AttachmentPath(ctx context.Context, actor Actor, entryID, attachmentID uuid.UUID) (string, string, error) {
	if _, err := s.findVisible(ctx, actor, entryID); err != nil {
		return "", "", err
	}
	att, err := s.entries.FindAttachment(ctx, entryID, attachmentID)
	if err != nil {
		return "", "", errors.New("attachment not found")
	}
	if s.store == nil {
		return "", "", errors.New("attachment storage unavailable")
	}
	return s.store.Path(att.Key), att.FileName, nil
}

// ── statements ───────────────────────────────────────────────────────────────

// GenerateStatement creates (or reuses) the statement row and enqueues the
// async generation job. Re-requesting a failed statement resets its retry
// state and enqueues again.
func (s *billingService) GenerateStatement(ctx context.Context, actor Actor, req dto.GenerateStatementRequest) (*dto.StatementResponse, error) {
	therapistID, err := uuid.Parse(req.TherapistID)
	if err != nil {
		return nil, errors.New("invalid therapist id")
	}
	if actor.AccessLevel < 5 && therapistID != actor.UserID {
		return nil, ErrForbidden
	}
	if _, err := s.therapists.FindByID(ctx, therapistID); err != nil {
		return nil, errors.New("therapist not found")
	}

	statement, err := s.statements.FindByPeriod(ctx, therapistID, req.Period)
	if err == nil {
		if statement.Status != model.StatementError {
			return statementToResponse(statement), nil
		}
		statement.Status = model.StatementPending
		statement.RetryCount = 0
		statement.NextRetryAt = nil
		statement.LastError = nil
		if err := s.statements.Update(ctx, statement); err != nil {
			return nil, err
		}
	} else {
		statement = &model.Statement{
			TherapistID: therapistID,
			Period:      req.Period,
			Status:      model.StatementPending,
		}
		if err := s.statements.Create(ctx, statement); err != nil {
			return nil, err
		}
	}

	if s.dispatcher == nil {
		return nil, errors.New("statement generation unavailable")
	}
	payload := worker.StatementJobPayload{
		StatementID: statement.ID.String(),
		Email:       req.Email,
	}
	if err := s.dispatcher.EnqueueStatement(ctx, payload); err != nil {
		return nil, err
	}
	return statementToResponse(statement), nil
}

func (s *billingService) GetStatement(ctx context.Context, id uuid.UUID) (*dto.StatementResponse, error) {
	statement, err := s.statements.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("statement not found")
	}
	return statementToResponse(statement), nil
}

func (s *billingService) ListStatements(ctx context.Context, actor Actor, therapistID string, page, limit int) ([]dto.StatementResponse, int64, error) {
	if actor.AccessLevel < 5 {
		therapistID = actor.UserID.String()
	}
	statements, total, err := s.statements.List(ctx, therapistID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.StatementResponse, len(statements))
	for i := range statements {
		resp[i] = *statementToResponse(&statements[i])
	}
	return resp, total, nil
}

func (s *billingService) StatementPDFPath(ctx context.Context, id uuid.UUID) (string, error) {
	statement, err := s.statements.FindByID(ctx, id)
	if err != nil {
		return "", errors.New("statement not found")
	}
	if statement.PDFPath == nil || *statement.PDFPath == "" {
		return "", errors.New("PDF not available, statement status is '" + statement.Status + "'")
	}
	return *statement.PDFPath, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

// price resolves amount and units from the therapist's rate table. Meetings
// bill by hour bucket; everything else is one unit at the configured rate.
func (s *billingService) price(ctx context.Context, therapistID uuid.UUID, attendance billing.AttendanceType, startTime, endTime string) (decimal.Decimal, int, error) {
	therapist, err := s.therapists.FindByID(ctx, therapistID)
	if err != nil {
		return decimal.Zero, 0, errors.New("therapist not found")
	}
	rates := make(billing.RateTable, len(therapist.Rates))
	for _, r := range therapist.Rates {
		rates[billing.AttendanceType(r.AttendanceType)] = r.Amount
	}

	rate := billing.RateFor(attendance, rates)
	units := 1
	amount := rate
	if attendance == billing.AttendanceMeeting {
		units = billing.BilledUnits(scheduleMinutes(startTime, endTime))
		amount = rate.Mul(decimal.NewFromInt(int64(units)))
	}
	return amount, units, nil
}

func (s *billingService) saveAttachment(ctx context.Context, entryID uuid.UUID, up AttachmentUpload) error {
	if s.store == nil {
		return errors.New("attachment storage unavailable")
	}
	key, size, err := s.store.Save("billing", entryID.String(), up.FileName, up.Reader)
	if err != nil {
		return err
	}
	return s.entries.AddAttachment(ctx, &model.BillingAttachment{
		EntryID:  entryID,
		FileName: up.FileName,
		Key:      key,
		Size:     size,
	})
}

// findVisible loads an entry and enforces ownership for sub-coordinator
// actors.
func (s *billingService) findVisible(ctx context.Context, actor Actor, id uuid.UUID) (*model.BillingEntry, error) {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("billing entry not found")
	}
	if actor.AccessLevel < 5 && entry.TherapistID != actor.UserID {
		return nil, ErrForbidden
	}
	return entry, nil
}

// notifyRejection emails the therapist that an entry bounced. Best effort:
// a failed enqueue never rolls back the rejection.
func (s *billingService) notifyRejection(ctx context.Context, entry *model.BillingEntry, reason string) {
	if s.dispatcher == nil {
		return
	}
	therapist, err := s.therapists.FindByID(ctx, entry.TherapistID)
	if err != nil || therapist.Email == nil || *therapist.Email == "" {
		return
	}
	payload := worker.NotificationJobPayload{
		ToEmail: *therapist.Email,
		Subject: "Billing entry rejected - " + entry.SessionDate.Format("2006-01-02"),
		Body: "Your billing entry for " + entry.SessionDate.Format("2006-01-02") +
			" (" + entry.AttendanceType + ") was rejected.\nReason: " + reason +
			"\n\nCorrect the entry to resubmit it for review.",
	}
	if err := s.dispatcher.EnqueueNotification(ctx, payload); err != nil {
		log.Warn().Err(err).Str("entry_id", entry.ID.String()).Msg("billing: rejection notification enqueue failed")
	}
}

func entryToResponse(e *model.BillingEntry) *dto.BillingEntryResponse {
	resp := &dto.BillingEntryResponse{
		ID:                e.ID.String(),
		TherapistID:       e.TherapistID.String(),
		SessionDate:       e.SessionDate.Format("2006-01-02"),
		StartTime:         e.StartTime,
		EndTime:           e.EndTime,
		AttendanceType:    e.AttendanceType,
		CostReimbursement: e.CostReimbursement,
		Amount:            e.Amount,
		Units:             e.Units,
		Status:            e.Status,
		RejectionReason:   e.RejectionReason,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}
	if e.ClientID != nil {
		cid := e.ClientID.String()
		resp.ClientID = &cid
	}
	if e.SessionID != nil {
		sid := e.SessionID.String()
		resp.SessionID = &sid
	}
	for _, a := range e.Attachments {
		resp.Attachments = append(resp.Attachments, dto.AttachmentResponse{
			ID:        a.ID.String(),
			FileName:  a.FileName,
			Size:      a.Size,
			CreatedAt: a.CreatedAt.Format(time.RFC3339),
		})
	}
	for _, t := range e.Transitions {
		resp.Transitions = append(resp.Transitions, dto.TransitionResponse{
			Action:    t.Action,
			ActorID:   t.ActorID.String(),
			Note:      t.Note,
			CreatedAt: t.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

func statementToResponse(st *model.Statement) *dto.StatementResponse {
	resp := &dto.StatementResponse{
		ID:          st.ID.String(),
		TherapistID: st.TherapistID.String(),
		Period:      st.Period,
		Entries:     st.Entries,
		Total:       st.Total,
		Status:      st.Status,
		CreatedAt:   st.CreatedAt.Format(time.RFC3339),
	}
	if st.PDFPath != nil && *st.PDFPath != "" {
		u := "/v1/billing/statements/" + st.ID.String() + "/pdf"
		resp.PDFUrl = &u
	}
	return resp
}
