package service

import (
	"context"
	"errors"
	"testing"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ratedTherapist(repo *fakeTherapistRepo, rates map[string]int64) *model.Therapist {
	t := &model.Therapist{
		Username: "ana@indigo.com",
		Name:     "Ana",
		Role:     "terapeuta",
		Active:   true,
	}
	repo.add(t)
	for attendance, amount := range rates {
		t.Rates = append(t.Rates, model.TherapistRate{
			TherapistID:    t.ID,
			AttendanceType: attendance,
			Amount:         decimal.NewFromInt(amount),
		})
	}
	return t
}

func billingFixture() (BillingService, *fakeBillingRepo, *fakeStatementRepo, *fakeTherapistRepo) {
	entries := newFakeBillingRepo()
	statements := newFakeStatementRepo()
	therapists := newFakeTherapistRepo()
	svc := NewBillingService(entries, statements, therapists, nil, nil)
	return svc, entries, statements, therapists
}

func TestCreateEntryMeetingBillsByHourBucket(t *testing.T) {
	svc, _, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, map[string]int64{"meeting": 50})
	actor := Actor{UserID: therapist.ID, Role: "terapeuta", AccessLevel: 2}

	resp, err := svc.Create(context.Background(), actor, dto.CreateBillingEntryRequest{
		SessionDate:    "2026-03-10",
		StartTime:      "09:00",
		EndTime:        "11:00", // 120 minutes, two hour units
		AttendanceType: "meeting",
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, resp.Units)
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, model.BillingPending, resp.Status)
}

func TestCreateEntryOfficeBillsOneUnit(t *testing.T) {
	svc, _, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, map[string]int64{"office": 130})
	actor := Actor{UserID: therapist.ID, AccessLevel: 2}

	resp, err := svc.Create(context.Background(), actor, dto.CreateBillingEntryRequest{
		SessionDate:    "2026-03-10",
		StartTime:      "09:00",
		EndTime:        "12:00",
		AttendanceType: "office",
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Units)
	assert.True(t, resp.Amount.Equal(decimal.NewFromInt(130)))
}

func TestCreateEntryCollectsAllViolations(t *testing.T) {
	svc, _, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	actor := Actor{UserID: therapist.ID, AccessLevel: 2}

	_, err := svc.Create(context.Background(), actor, dto.CreateBillingEntryRequest{
		SessionDate:    "2026-03-10",
		StartTime:      "11:00",
		EndTime:        "09:00",
		AttendanceType: "home_care",
	})

	var violations *FieldViolations
	assert.ErrorAs(t, err, &violations)
	assert.Len(t, violations.Fields, 2)
	assert.Contains(t, violations.Fields, "end_time")
	assert.Contains(t, violations.Fields, "cost_reimbursement")
}

func TestApproveFlipsPendingAndRecordsTransition(t *testing.T) {
	svc, entries, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	reviewer := Actor{UserID: uuid.New(), Role: "coordenador", AccessLevel: 5}

	entry := &model.BillingEntry{TherapistID: therapist.ID, Status: model.BillingPending}
	_ = entries.CreateTx(context.Background(), nil, entry)

	resp, err := svc.Approve(context.Background(), reviewer, entry.ID)

	assert.NoError(t, err)
	assert.Equal(t, model.BillingApproved, resp.Status)
	assert.Len(t, resp.Transitions, 1)
	assert.Equal(t, "approved", resp.Transitions[0].Action)
}

func TestApproveNonPendingIsConflict(t *testing.T) {
	svc, entries, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	reviewer := Actor{UserID: uuid.New(), AccessLevel: 5}

	entry := &model.BillingEntry{TherapistID: therapist.ID, Status: model.BillingApproved}
	_ = entries.CreateTx(context.Background(), nil, entry)

	_, err := svc.Approve(context.Background(), reviewer, entry.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestApproveFailedAuditWriteRollsBack(t *testing.T) {
	svc, entries, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	reviewer := Actor{UserID: uuid.New(), AccessLevel: 5}

	entry := &model.BillingEntry{TherapistID: therapist.ID, Status: model.BillingPending}
	_ = entries.CreateTx(context.Background(), nil, entry)
	entries.transitionErr = errors.New("transitions table unavailable")

	_, err := svc.Approve(context.Background(), reviewer, entry.ID)

	assert.Error(t, err)
	assert.Equal(t, model.BillingPending, entries.entries[entry.ID].Status)
	assert.Empty(t, entries.transitions[entry.ID])
}

func TestCreateEntryFailedAuditWriteSurfacesError(t *testing.T) {
	svc, entries, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, map[string]int64{"office": 100})
	actor := Actor{UserID: therapist.ID, AccessLevel: 2}

	entries.transitionErr = errors.New("transitions table unavailable")

	_, err := svc.Create(context.Background(), actor, dto.CreateBillingEntryRequest{
		SessionDate:    "2026-03-10",
		StartTime:      "09:00",
		EndTime:        "10:00",
		AttendanceType: "office",
	})

	assert.Error(t, err)
}

func TestRejectThenCorrectRoundTrip(t *testing.T) {
	svc, entries, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, map[string]int64{"office": 100, "home_care": 150})
	owner := Actor{UserID: therapist.ID, AccessLevel: 2}
	reviewer := Actor{UserID: uuid.New(), AccessLevel: 5}

	created, err := svc.Create(context.Background(), owner, dto.CreateBillingEntryRequest{
		SessionDate:    "2026-03-10",
		StartTime:      "09:00",
		EndTime:        "10:00",
		AttendanceType: "office",
	})
	assert.NoError(t, err)
	entryID := uuid.MustParse(created.ID)

	rejected, err := svc.Reject(context.Background(), reviewer, entryID, dto.RejectBillingRequest{
		Reason: "wrong attendance type",
	})
	assert.NoError(t, err)
	assert.Equal(t, model.BillingRejected, rejected.Status)
	assert.Equal(t, "wrong attendance type", *rejected.RejectionReason)

	reimburse := false
	corrected, err := svc.Correct(context.Background(), owner, entryID, dto.CorrectBillingRequest{
		AttendanceType:    "home_care",
		CostReimbursement: &reimburse,
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, model.BillingPending, corrected.Status)
	assert.Nil(t, corrected.RejectionReason)
	assert.Equal(t, "home_care", corrected.AttendanceType)
	assert.True(t, corrected.Amount.Equal(decimal.NewFromInt(150)), "corrected entry is re-priced")

	entry, _ := entries.FindByID(context.Background(), entryID)
	actions := make([]string, len(entry.Transitions))
	for i, tr := range entry.Transitions {
		actions[i] = tr.Action
	}
	assert.Equal(t, []string{"created", "rejected", "corrected"}, actions)
}

func TestCorrectRequiresOwner(t *testing.T) {
	svc, entries, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	stranger := Actor{UserID: uuid.New(), AccessLevel: 2}

	entry := &model.BillingEntry{TherapistID: therapist.ID, Status: model.BillingRejected, StartTime: "09:00", EndTime: "10:00", AttendanceType: "office"}
	_ = entries.CreateTx(context.Background(), nil, entry)

	_, err := svc.Correct(context.Background(), stranger, entry.ID, dto.CorrectBillingRequest{}, nil)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCorrectOnlyRejectedEntries(t *testing.T) {
	svc, entries, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	owner := Actor{UserID: therapist.ID, AccessLevel: 2}

	entry := &model.BillingEntry{TherapistID: therapist.ID, Status: model.BillingPending, StartTime: "09:00", EndTime: "10:00", AttendanceType: "office"}
	_ = entries.CreateTx(context.Background(), nil, entry)

	_, err := svc.Correct(context.Background(), owner, entry.ID, dto.CorrectBillingRequest{}, nil)
	assert.EqualError(t, err, "only rejected entries can be corrected")
}

func TestBulkApproveNeverAbortsTheBatch(t *testing.T) {
	svc, entries, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	reviewer := Actor{UserID: uuid.New(), AccessLevel: 5}

	pending1 := &model.BillingEntry{TherapistID: therapist.ID, Status: model.BillingPending}
	approved := &model.BillingEntry{TherapistID: therapist.ID, Status: model.BillingApproved}
	pending2 := &model.BillingEntry{TherapistID: therapist.ID, Status: model.BillingPending}
	for _, e := range []*model.BillingEntry{pending1, approved, pending2} {
		_ = entries.CreateTx(context.Background(), nil, e)
	}

	resp, err := svc.BulkApprove(context.Background(), reviewer, dto.BulkApproveRequest{
		EntryIDs: []string{pending1.ID.String(), approved.ID.String(), pending2.ID.String()},
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, resp.Succeeded)
	assert.Equal(t, 1, resp.Failed)
	assert.Len(t, resp.Results, 3)
	assert.True(t, resp.Results[0].OK)
	assert.False(t, resp.Results[1].OK)
	assert.Equal(t, "entry is not pending", *resp.Results[1].Error)
	assert.True(t, resp.Results[2].OK)
}

func TestListScopesBelowCoordinatorToOwnEntries(t *testing.T) {
	svc, entries, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	actor := Actor{UserID: therapist.ID, AccessLevel: 2}

	_, err := svc.List(context.Background(), actor, dto.BillingFilter{TherapistID: uuid.NewString()})
	assert.NoError(t, err)
	assert.Equal(t, therapist.ID.String(), entries.lastFilter.TherapistID,
		"requested therapist filter is overridden with the actor's own id")
}

func TestGetForeignEntryForbiddenBelowCoordinator(t *testing.T) {
	svc, entries, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	stranger := Actor{UserID: uuid.New(), AccessLevel: 2}

	entry := &model.BillingEntry{TherapistID: therapist.ID, Status: model.BillingPending}
	_ = entries.CreateTx(context.Background(), nil, entry)

	_, err := svc.Get(context.Background(), stranger, entry.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestGenerateStatementReusesExisting(t *testing.T) {
	svc, _, statements, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	actor := Actor{UserID: therapist.ID, AccessLevel: 2}

	pdf := "statement_x.pdf"
	existing := &model.Statement{
		TherapistID: therapist.ID,
		Period:      "2026-02",
		Status:      model.StatementGenerated,
		PDFPath:     &pdf,
	}
	_ = statements.Create(context.Background(), existing)

	resp, err := svc.GenerateStatement(context.Background(), actor, dto.GenerateStatementRequest{
		TherapistID: therapist.ID.String(),
		Period:      "2026-02",
	})

	assert.NoError(t, err)
	assert.Equal(t, existing.ID.String(), resp.ID)
	assert.Equal(t, model.StatementGenerated, resp.Status)
	assert.NotNil(t, resp.PDFUrl)
	assert.Len(t, statements.statements, 1, "no duplicate row for the same period")
}

func TestGenerateStatementForbiddenForOtherTherapist(t *testing.T) {
	svc, _, _, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)
	stranger := Actor{UserID: uuid.New(), AccessLevel: 2}

	_, err := svc.GenerateStatement(context.Background(), stranger, dto.GenerateStatementRequest{
		TherapistID: therapist.ID.String(),
		Period:      "2026-02",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestStatementPDFPathBeforeGeneration(t *testing.T) {
	svc, _, statements, therapists := billingFixture()
	therapist := ratedTherapist(therapists, nil)

	st := &model.Statement{TherapistID: therapist.ID, Period: "2026-02", Status: model.StatementPending}
	_ = statements.Create(context.Background(), st)

	_, err := svc.StatementPDFPath(context.Background(), st.ID)
	assert.ErrorContains(t, err, "PDF not available")
}
