package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/labgate-api/internal/models"
)

func TestSubjectRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "course_id", "course_name", "section", "role", "created_at", "updated_at"}).
		AddRow("stu-1", "Ada Lovelace", "bsit", "BS Information Technology", "3A", "STANDARD", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects s LEFT JOIN courses c ON c.id = s.course_id WHERE s.id = $1")).
		WithArgs("stu-1").
		WillReturnRows(rows)

	subject, err := repo.FindByID(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", subject.FullName)
	assert.Equal(t, models.RoleStandard, subject.Role)
	require.NotNil(t, subject.Section)
	assert.Equal(t, "3A", *subject.Section)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery("FROM subjects s").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
