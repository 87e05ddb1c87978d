package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/labgate-api/internal/models"
)

// SubjectRepository reads subject rows maintained by the registration service.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository constructs the repository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// FindByID loads a subject with its course name. sql.ErrNoRows is returned untouched.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	const query = `SELECT s.id, s.full_name, s.course_id, c.name AS course_name, s.section, s.role, s.created_at, s.updated_at
FROM subjects s
LEFT JOIN courses c ON c.id = s.course_id
WHERE s.id = $1`
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, query, id); err != nil {
		return nil, err
	}
	return &subject, nil
}
