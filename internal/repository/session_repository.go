package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/labgate-api/internal/models"
	"github.com/noah-isme/labgate-api/pkg/timewindow"
)

const sessionColumns = `ls.id, ls.course_id, c.name AS course_name, ls.name, ls.day_of_week, ls.start_time, ls.end_time, ls.section, ls.room, ls.created_at, ls.updated_at`

// SessionRepository reads lab session definitions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindByID returns a session by id. sql.ErrNoRows is returned untouched.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.LabSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM lab_sessions ls LEFT JOIN courses c ON c.id = ls.course_id WHERE ls.id = $1`, sessionColumns)
	var session models.LabSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	normalizeSessionClock(&session)
	return &session, nil
}

// ListBySubject returns every session the subject is enrolled in, ordered by id.
func (r *SessionRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.LabSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments e
JOIN lab_sessions ls ON ls.id = e.session_id
LEFT JOIN courses c ON c.id = ls.course_id
WHERE e.subject_id = $1
ORDER BY ls.id ASC`, sessionColumns)
	var sessions []models.LabSession
	if err := r.db.SelectContext(ctx, &sessions, query, subjectID); err != nil {
		return nil, fmt.Errorf("list sessions by subject: %w", err)
	}
	for i := range sessions {
		normalizeSessionClock(&sessions[i])
	}
	return sessions, nil
}

// start_time and end_time may be TIME columns, which read back as HH:MM:SS.
func normalizeSessionClock(session *models.LabSession) {
	session.StartTime = timewindow.NormalizeClock(session.StartTime)
	session.EndTime = timewindow.NormalizeClock(session.EndTime)
}
