package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/labgate-api/internal/dto"
	"github.com/noah-isme/labgate-api/internal/models"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
	"github.com/noah-isme/labgate-api/pkg/timewindow"
)

type attendanceAdminRepository interface {
	FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error)
	Close(ctx context.Context, id string, timeOut time.Time) (bool, error)
	CloseSession(ctx context.Context, sessionID string, date, timeOut time.Time) (int64, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error)
}

type sessionGetter interface {
	Get(ctx context.Context, id string) (*models.LabSession, error)
}

// AttendanceService backs the operator screens. Closing a record is always an explicit operator
// action; scanning never sets time_out.
type AttendanceService struct {
	repo      attendanceAdminRepository
	sessions  sessionGetter
	clock     Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceAdminRepository, sessions sessionGetter, clock Clock, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	return &AttendanceService{repo: repo, sessions: sessions, clock: clock, validator: validate, logger: logger}
}

// List returns paginated attendance.
func (s *AttendanceService) List(ctx context.Context, req dto.AttendanceListRequest) ([]models.AttendanceRecordDetail, *models.Pagination, error) {
	if req.DateFrom != nil && req.DateTo != nil && req.DateTo.Before(*req.DateFrom) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "dateTo must not be before dateFrom")
	}
	filter := models.AttendanceFilter{
		SubjectID: req.SubjectID,
		SessionID: req.SessionID,
		DateFrom:  req.DateFrom,
		DateTo:    req.DateTo,
		OpenOnly:  req.OpenOnly,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 500 {
		filter.PageSize = 50
	}
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Close stamps time_out = now on an open record.
func (s *AttendanceService) Close(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	if !record.Open() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance record already closed")
	}
	now := s.clock.Now()
	closed, err := s.repo.Close(ctx, id, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close attendance record")
	}
	if !closed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance record already closed")
	}
	record.TimeOut = &now
	s.logger.Info("attendance closed", zap.String("attendance_id", id), zap.String("subject_id", record.SubjectID))
	return record, nil
}

// CloseSession closes every open record of a session for one calendar day.
func (s *AttendanceService) CloseSession(ctx context.Context, sessionID string, req dto.CloseSessionRequest) (*dto.CloseSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid close session payload")
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}

	now := s.clock.Now()
	date := timewindow.CalendarDate(now)
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		date = parsed
	}

	closed, err := s.repo.CloseSession(ctx, sessionID, date, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close session attendance")
	}
	s.logger.Info("session attendance closed",
		zap.String("session_id", sessionID),
		zap.String("date", date.Format("2006-01-02")),
		zap.Int64("closed", closed))
	return &dto.CloseSessionResponse{
		SessionID: sessionID,
		Date:      date.Format("2006-01-02"),
		Closed:    closed,
		TimeOut:   now,
	}, nil
}
