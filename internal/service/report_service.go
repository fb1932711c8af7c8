package service

import (
	"context"

	"github.com/agency73code/indigo-gestao-sub010/internal/dto"
	"github.com/agency73code/indigo-gestao-sub010/internal/model"
	"github.com/agency73code/indigo-gestao-sub010/internal/report"
	"github.com/agency73code/indigo-gestao-sub010/internal/repository"
)

type ReportService interface {
	SessionReport(ctx context.Context, filter dto.ReportFilter) (*dto.SessionReportResponse, error)
}

type reportService struct {
	sessions repository.SessionRepository
}

func NewReportService(sessions repository.SessionRepository) ReportService {
	return &reportService{sessions: sessions}
}

// SessionReport aggregates every chart series for a client's sessions in one
// pass over the data. Empty result sets come back as empty slices, never as
// errors.
func (s *reportService) SessionReport(ctx context.Context, filter dto.ReportFilter) (*dto.SessionReportResponse, error) {
	rows, err := s.sessions.ListForReport(ctx, filter)
	if err != nil {
		return nil, err
	}

	sessions := make([]report.Session, len(rows))
	var allTrials []report.Trial
	for i := range rows {
		sessions[i] = toReportSession(&rows[i])
		allTrials = append(allTrials, sessions[i].Trials...)
	}

	return &dto.SessionReportResponse{
		Sessions:    len(sessions),
		Autonomy:    report.AutonomyByCategory(allTrials),
		Performance: report.PerformanceOverTime(sessions),
		Load:        report.LoadTrend(report.SessionLoads(sessions)),
	}, nil
}

func toReportSession(s *model.TherapySession) report.Session {
	rs := report.Session{
		ID:     s.ID.String(),
		Date:   s.SessionDate.Format("2006-01-02"),
		Trials: make([]report.Trial, len(s.Trials)),
	}
	for i, t := range s.Trials {
		rs.Trials[i] = report.Trial{
			Outcome:  t.Outcome,
			Category: t.Category,
			Load:     t.Load,
		}
	}
	return rs
}
