package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/labgate-api/pkg/timewindow"
)

var sessionRowColumns = []string{"id", "course_id", "course_name", "name", "day_of_week", "start_time", "end_time", "section", "room", "created_at", "updated_at"}

func TestSessionRepositoryListBySubject(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(sessionRowColumns).
		AddRow("lab-1", "bsit", "BSIT", "Networking Lab", "MONDAY", "09:00", "11:00", "3A", "CL-1", now, now).
		AddRow("lab-2", "bsit", "BSIT", "Database Lab", "MONDAY", "13:00", "15:00", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments e JOIN lab_sessions ls ON ls.id = e.session_id")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	sessions, err := repo.ListBySubject(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, timewindow.Monday, sessions[0].DayOfWeek)
	assert.Nil(t, sessions[1].Section)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(sessionRowColumns).
		AddRow("lab-1", "bsit", nil, "Networking Lab", "FRIDAY", "09:00", "11:00", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM lab_sessions ls LEFT JOIN courses c ON c.id = ls.course_id WHERE ls.id = $1")).
		WithArgs("lab-1").
		WillReturnRows(rows)

	session, err := repo.FindByID(context.Background(), "lab-1")
	require.NoError(t, err)
	assert.Equal(t, "11:00", session.EndTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryNormalisesStoredDayAndTime(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(sessionRowColumns).
		AddRow("lab-1", "bsit", "BSIT", "Networking Lab", "Monday", "09:00", "11:00", nil, nil, now, now).
		AddRow("lab-2", "bsit", "BSIT", "Database Lab", []byte("MONDAY"), []byte("13:00:00"), []byte("15:00:00"), nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments e JOIN lab_sessions ls ON ls.id = e.session_id")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	sessions, err := repo.ListBySubject(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, timewindow.Monday, sessions[0].DayOfWeek)
	assert.Equal(t, timewindow.Monday, sessions[1].DayOfWeek)
	assert.Equal(t, "13:00", sessions[1].StartTime)
	assert.Equal(t, "15:00", sessions[1].EndTime)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByIDNormalisesTimeColumns(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(sessionRowColumns).
		AddRow("lab-1", "bsit", nil, "Networking Lab", "fri", "09:00:00", "11:00:00.000000", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ls.id = $1")).
		WithArgs("lab-1").
		WillReturnRows(rows)

	session, err := repo.FindByID(context.Background(), "lab-1")
	require.NoError(t, err)
	assert.Equal(t, timewindow.Friday, session.DayOfWeek)
	window, err := session.Window()
	require.NoError(t, err)
	assert.Equal(t, "09:00-11:00", window.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryRejectsUnknownDay(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(sessionRowColumns).
		AddRow("lab-1", "bsit", nil, "Networking Lab", "Funday", "09:00", "11:00", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE ls.id = $1")).
		WithArgs("lab-1").
		WillReturnRows(rows)

	_, err := repo.FindByID(context.Background(), "lab-1")
	assert.ErrorIs(t, err, timewindow.ErrMalformedDay)
}
