package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/labgate-api/internal/models"
	"github.com/noah-isme/labgate-api/pkg/config"
	"github.com/noah-isme/labgate-api/pkg/timewindow"
)

// ResolutionFailure explains why no session applies to a subject right now.
type ResolutionFailure struct {
	Reason models.ReasonCode
}

func (f *ResolutionFailure) Error() string {
	return fmt.Sprintf("session resolution failed: %s", f.Reason)
}

type enrollmentChecker interface {
	Exists(ctx context.Context, subjectID, sessionID string) (bool, error)
}

type sessionSource interface {
	Get(ctx context.Context, id string) (*models.LabSession, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.LabSession, error)
}

// EnrollmentResolver finds the single session a subject may attend at a given instant.
type EnrollmentResolver struct {
	sessions    sessionSource
	enrollments enrollmentChecker
	tieBreak    string
	logger      *zap.Logger
}

// NewEnrollmentResolver constructs the resolver. tieBreak is config.TieBreakLowestID or
// config.TieBreakEarliestStart.
func NewEnrollmentResolver(sessions sessionSource, enrollments enrollmentChecker, tieBreak string, logger *zap.Logger) *EnrollmentResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tieBreak == "" {
		tieBreak = config.TieBreakLowestID
	}
	return &EnrollmentResolver{sessions: sessions, enrollments: enrollments, tieBreak: tieBreak, logger: logger}
}

// Resolve returns the active session for subjectID at now. A *ResolutionFailure is returned when
// no session applies; any other error means the store could not be read. hint is advisory: it is
// used only when it passes the same enrollment and time checks, otherwise full resolution runs.
func (r *EnrollmentResolver) Resolve(ctx context.Context, subjectID string, now time.Time, hint string) (*models.LabSession, error) {
	if hint != "" {
		session, err := r.checkHint(ctx, subjectID, now, hint)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	}

	enrolled, err := r.sessions.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if len(enrolled) == 0 {
		return nil, &ResolutionFailure{Reason: models.ReasonNotEnrolledAnywhere}
	}

	today := timewindow.DayOf(now)
	todays := make([]models.LabSession, 0, len(enrolled))
	for _, session := range enrolled {
		if session.DayOfWeek == today {
			todays = append(todays, session)
		}
	}
	if len(todays) == 0 {
		return nil, &ResolutionFailure{Reason: models.ReasonNoSessionToday}
	}

	type candidate struct {
		session models.LabSession
		window  timewindow.Window
	}
	active := make([]candidate, 0, len(todays))
	for _, session := range todays {
		window, err := session.Window()
		if err != nil {
			r.logger.Warn("skipping session with invalid window",
				zap.String("session_id", session.ID),
				zap.String("start_time", session.StartTime),
				zap.String("end_time", session.EndTime),
				zap.Error(err))
			continue
		}
		if window.Contains(now) {
			active = append(active, candidate{session: session, window: window})
		}
	}
	if len(active) == 0 {
		return nil, &ResolutionFailure{Reason: models.ReasonNoActiveSessionNow}
	}

	sort.SliceStable(active, func(i, j int) bool {
		if r.tieBreak == config.TieBreakEarliestStart && active[i].window.Start != active[j].window.Start {
			return active[i].window.Start < active[j].window.Start
		}
		return active[i].session.ID < active[j].session.ID
	})
	if len(active) > 1 {
		r.logger.Info("overlapping sessions resolved",
			zap.String("subject_id", subjectID),
			zap.String("session_id", active[0].session.ID),
			zap.Int("candidates", len(active)),
			zap.String("tie_break", r.tieBreak))
	}
	chosen := active[0].session
	return &chosen, nil
}

func (r *EnrollmentResolver) checkHint(ctx context.Context, subjectID string, now time.Time, hint string) (*models.LabSession, error) {
	enrolled, err := r.enrollments.Exists(ctx, subjectID, hint)
	if err != nil {
		return nil, err
	}
	if !enrolled {
		r.logger.Debug("session hint ignored: not enrolled", zap.String("subject_id", subjectID), zap.String("session_id", hint))
		return nil, nil
	}
	session, err := r.sessions.Get(ctx, hint)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	active, err := session.ActiveAt(now)
	if err != nil || !active {
		r.logger.Debug("session hint ignored: not active", zap.String("subject_id", subjectID), zap.String("session_id", hint))
		return nil, nil
	}
	return session, nil
}
