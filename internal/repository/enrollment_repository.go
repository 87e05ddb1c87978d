package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnrollmentRepository checks subject to session links. Session listings join enrollments in
// SessionRepository.ListBySubject.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Exists reports whether the subject is enrolled in the session.
func (r *EnrollmentRepository) Exists(ctx context.Context, subjectID, sessionID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM enrollments WHERE subject_id = $1 AND session_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, subjectID, sessionID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}
