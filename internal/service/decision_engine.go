package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/labgate-api/internal/models"
	"github.com/noah-isme/labgate-api/internal/repository"
	"github.com/noah-isme/labgate-api/pkg/credential"
	"github.com/noah-isme/labgate-api/pkg/timewindow"
)

type attendanceWriter interface {
	FindOpen(ctx context.Context, subjectID, sessionID string, date time.Time) (*models.AttendanceRecord, error)
	Insert(ctx context.Context, record *models.AttendanceRecord) error
}

type sessionResolver interface {
	Resolve(ctx context.Context, subjectID string, now time.Time, hint string) (*models.LabSession, error)
}

// DecisionEngine turns a scanned credential into a verdict and records attendance on a new grant.
// Denials are values, never errors.
type DecisionEngine struct {
	subjects   subjectRepository
	resolver   sessionResolver
	attendance attendanceWriter
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewDecisionEngine constructs the engine.
func NewDecisionEngine(subjects subjectRepository, resolver sessionResolver, attendance attendanceWriter, metrics *MetricsService, logger *zap.Logger) *DecisionEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DecisionEngine{subjects: subjects, resolver: resolver, attendance: attendance, metrics: metrics, logger: logger}
}

// Decide evaluates raw scanned text at now. Checks run in priority order and the first match wins.
// The subject's role is always read from the subject record, never from the credential.
func (e *DecisionEngine) Decide(ctx context.Context, raw string, hint string, now time.Time) models.Verdict {
	verdict := e.decide(ctx, raw, hint, now)
	verdict.DecidedAt = now
	verdict.Message = verdictMessage(verdict)
	e.metrics.RecordVerdict(verdict)

	fields := []zap.Field{
		zap.String("decision", string(verdict.Decision)),
		zap.String("reason", string(verdict.Reason)),
		zap.String("subject_id", verdict.SubjectID),
	}
	if verdict.Session != nil {
		fields = append(fields, zap.String("session_id", verdict.Session.ID))
	}
	if verdict.RecordID != nil {
		fields = append(fields, zap.String("attendance_id", *verdict.RecordID))
	}
	e.logger.Info("scan verdict", fields...)
	return verdict
}

func (e *DecisionEngine) decide(ctx context.Context, raw string, hint string, now time.Time) models.Verdict {
	cred, err := credential.Decode(raw)
	if err != nil {
		e.logger.Debug("credential rejected", zap.Error(err))
		return deny(models.ReasonMalformedCredential)
	}
	if !cred.ValidAt(now) {
		v := deny(models.ReasonCredentialExpired)
		v.SubjectID = cred.SubjectID
		return v
	}

	subject, err := e.subjects.FindByID(ctx, cred.SubjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			v := deny(models.ReasonSubjectUnknown)
			v.SubjectID = cred.SubjectID
			return v
		}
		return e.storeFailure(cred.SubjectID, "load subject", err)
	}

	if subject.Elevated() {
		return models.Verdict{
			Decision:    models.DecisionGranted,
			Reason:      models.ReasonElevatedOverride,
			SubjectID:   subject.ID,
			SubjectName: subject.FullName,
		}
	}

	session, err := e.resolver.Resolve(ctx, subject.ID, now, hint)
	if err != nil {
		var failure *ResolutionFailure
		if errors.As(err, &failure) {
			v := deny(failure.Reason)
			v.SubjectID = subject.ID
			v.SubjectName = subject.FullName
			return v
		}
		return e.storeFailure(subject.ID, "resolve session", err)
	}

	granted := models.Verdict{
		Decision:    models.DecisionGranted,
		SubjectID:   subject.ID,
		SubjectName: subject.FullName,
		Session:     session,
	}

	date := timewindow.CalendarDate(now)
	existing, err := e.attendance.FindOpen(ctx, subject.ID, session.ID, date)
	switch {
	case err == nil:
		granted.Reason = models.ReasonAlreadyRecordedToday
		granted.RecordID = &existing.ID
		return granted
	case !errors.Is(err, sql.ErrNoRows):
		return e.storeFailure(subject.ID, "find open attendance", err)
	}

	record := &models.AttendanceRecord{
		SubjectID:      subject.ID,
		SessionID:      session.ID,
		AttendanceDate: date,
		TimeIn:         now,
	}
	if err := e.attendance.Insert(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateAttendance) {
			granted.Reason = models.ReasonAlreadyRecordedToday
			return granted
		}
		return e.storeFailure(subject.ID, "insert attendance", err)
	}
	granted.Reason = models.ReasonGranted
	granted.RecordID = &record.ID
	return granted
}

func (e *DecisionEngine) storeFailure(subjectID, step string, err error) models.Verdict {
	e.logger.Error("attendance store unavailable", zap.String("subject_id", subjectID), zap.String("step", step), zap.Error(err))
	v := deny(models.ReasonStoreUnavailable)
	v.SubjectID = subjectID
	return v
}

func deny(reason models.ReasonCode) models.Verdict {
	return models.Verdict{Decision: models.DecisionDenied, Reason: reason}
}

func verdictMessage(v models.Verdict) string {
	name := v.SubjectName
	if name == "" {
		name = v.SubjectID
	}
	sessionName := ""
	if v.Session != nil {
		sessionName = v.Session.Name
		if sessionName == "" {
			sessionName = v.Session.ID
		}
	}
	switch v.Reason {
	case models.ReasonMalformedCredential:
		return "This code is not a lab credential. Ask the student to reopen their badge."
	case models.ReasonCredentialExpired:
		return "This credential has expired. Ask the student to refresh their badge."
	case models.ReasonSubjectUnknown:
		return "No registered student matches this credential."
	case models.ReasonElevatedOverride:
		return fmt.Sprintf("Welcome, %s. Administrator access granted.", name)
	case models.ReasonNotEnrolledAnywhere:
		return fmt.Sprintf("%s is not enrolled in any lab session.", name)
	case models.ReasonNoSessionToday:
		return fmt.Sprintf("%s has no lab session scheduled today.", name)
	case models.ReasonNoActiveSessionNow:
		return fmt.Sprintf("%s has no lab session running at this time.", name)
	case models.ReasonAlreadyRecordedToday:
		return fmt.Sprintf("Welcome back, %s. Attendance for %s was already recorded today.", name, sessionName)
	case models.ReasonGranted:
		return fmt.Sprintf("Welcome, %s. Attendance recorded for %s.", name, sessionName)
	case models.ReasonStoreUnavailable:
		return "Attendance records are unavailable right now. Entry denied, please try again."
	default:
		return string(v.Reason)
	}
}
