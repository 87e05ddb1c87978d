package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/labgate-api/internal/dto"
	"github.com/noah-isme/labgate-api/internal/models"
	appErrors "github.com/noah-isme/labgate-api/pkg/errors"
	"github.com/noah-isme/labgate-api/pkg/timewindow"
)

type attendanceAdminRepoStub struct {
	records      map[string]models.AttendanceRecord
	lastFilter   models.AttendanceFilter
	closedDate   time.Time
	closedResult int64
}

func (s *attendanceAdminRepoStub) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &record, nil
}

func (s *attendanceAdminRepoStub) Close(ctx context.Context, id string, timeOut time.Time) (bool, error) {
	record, ok := s.records[id]
	if !ok || !record.Open() {
		return false, nil
	}
	record.TimeOut = &timeOut
	s.records[id] = record
	return true, nil
}

func (s *attendanceAdminRepoStub) CloseSession(ctx context.Context, sessionID string, date, timeOut time.Time) (int64, error) {
	s.closedDate = date
	return s.closedResult, nil
}

func (s *attendanceAdminRepoStub) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	s.lastFilter = filter
	return []models.AttendanceRecordDetail{{AttendanceRecord: models.AttendanceRecord{ID: "att-1"}}}, 1, nil
}

func newAttendanceFixture() (*AttendanceService, *attendanceAdminRepoStub, *fakeClock) {
	repo := &attendanceAdminRepoStub{records: map[string]models.AttendanceRecord{
		"att-1": {ID: "att-1", SubjectID: "S-1", SessionID: "L-1", TimeIn: monday(9, 5)},
	}}
	sessions := sessionSourceStub{byID: map[string]models.LabSession{
		"L-1": labSession("L-1", timewindow.Monday, "09:00", "11:00"),
	}}
	clock := newFakeClock(monday(11, 30))
	return NewAttendanceService(repo, sessions, clock, nil, nil), repo, clock
}

func TestAttendanceServiceList(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	from := monday(0, 0)
	to := from.AddDate(0, 0, -1)

	_, _, err := svc.List(context.Background(), dto.AttendanceListRequest{DateFrom: &from, DateTo: &to})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	records, pagination, err := svc.List(context.Background(), dto.AttendanceListRequest{SessionID: "L-1", PageSize: 9000})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 50, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, "L-1", repo.lastFilter.SessionID)
}

func TestAttendanceServiceClose(t *testing.T) {
	svc, _, _ := newAttendanceFixture()

	closed, err := svc.Close(context.Background(), "att-1")
	require.NoError(t, err)
	require.NotNil(t, closed.TimeOut)
	assert.Equal(t, monday(11, 30), *closed.TimeOut)

	_, err = svc.Close(context.Background(), "att-1")
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Close(context.Background(), "att-404")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAttendanceServiceCloseSession(t *testing.T) {
	svc, repo, _ := newAttendanceFixture()
	repo.closedResult = 4

	resp, err := svc.CloseSession(context.Background(), "L-1", dto.CloseSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Closed)
	assert.Equal(t, "2024-05-06", resp.Date)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), repo.closedDate)

	resp, err = svc.CloseSession(context.Background(), "L-1", dto.CloseSessionRequest{Date: "2024-05-03"})
	require.NoError(t, err)
	assert.Equal(t, "2024-05-03", resp.Date)

	_, err = svc.CloseSession(context.Background(), "L-1", dto.CloseSessionRequest{Date: "05/03/2024"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.CloseSession(context.Background(), "L-404", dto.CloseSessionRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
