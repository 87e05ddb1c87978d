package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/labgate-api/internal/models"
)

// ErrDuplicateAttendance is returned by Insert when an open record already exists for the same
// subject, session and date.
var ErrDuplicateAttendance = errors.New("attendance already recorded")

const attendanceColumns = `id, subject_id, session_id, attendance_date, time_in, time_out, created_at`

// AttendanceRepository persists attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindOpen returns the open record for subject, session and date. sql.ErrNoRows is returned untouched.
func (r *AttendanceRepository) FindOpen(ctx context.Context, subjectID, sessionID string, date time.Time) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records
WHERE subject_id = $1 AND session_id = $2 AND attendance_date = $3 AND time_out IS NULL
LIMIT 1`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, subjectID, sessionID, date); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByID returns a record by id. sql.ErrNoRows is returned untouched.
func (r *AttendanceRepository) FindByID(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_records WHERE id = $1`, attendanceColumns)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Insert writes a new open record. The partial unique index on open records turns a concurrent
// duplicate into ErrDuplicateAttendance instead of a second row.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_records (id, subject_id, session_id, attendance_date, time_in, time_out, created_at)
VALUES ($1, $2, $3, $4, $5, NULL, $6)
ON CONFLICT (subject_id, session_id, attendance_date) WHERE time_out IS NULL DO NOTHING RETURNING id`
	var insertedID string
	err := r.db.QueryRowxContext(ctx, query, record.ID, record.SubjectID, record.SessionID, record.AttendanceDate, record.TimeIn, record.CreatedAt).Scan(&insertedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDuplicateAttendance
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	record.ID = insertedID
	return nil
}

// Close stamps time_out on one open record. It returns false when the record was already closed
// or does not exist.
func (r *AttendanceRepository) Close(ctx context.Context, id string, timeOut time.Time) (bool, error) {
	const query = `UPDATE attendance_records SET time_out = $1 WHERE id = $2 AND time_out IS NULL`
	result, err := r.db.ExecContext(ctx, query, timeOut, id)
	if err != nil {
		return false, fmt.Errorf("close attendance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close attendance rows affected: %w", err)
	}
	return affected > 0, nil
}

// CloseSession stamps time_out on every open record of the session for the given date.
func (r *AttendanceRepository) CloseSession(ctx context.Context, sessionID string, date, timeOut time.Time) (int64, error) {
	const query = `UPDATE attendance_records SET time_out = $1 WHERE session_id = $2 AND attendance_date = $3 AND time_out IS NULL`
	result, err := r.db.ExecContext(ctx, query, timeOut, sessionID, date)
	if err != nil {
		return 0, fmt.Errorf("close session attendance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close session rows affected: %w", err)
	}
	return affected, nil
}

// List returns attendance rows with subject and session names.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	base := `FROM attendance_records ar
JOIN subjects s ON s.id = ar.subject_id
JOIN lab_sessions ls ON ls.id = ar.session_id
LEFT JOIN courses c ON c.id = ls.course_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.SubjectID != "" {
		where = append(where, fmt.Sprintf("ar.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.SessionID != "" {
		where = append(where, fmt.Sprintf("ar.session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("ar.attendance_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("ar.attendance_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if filter.OpenOnly {
		where = append(where, "ar.time_out IS NULL")
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"date":    "ar.attendance_date",
		"time_in": "ar.time_in",
		"subject": "s.full_name",
	}
	column, ok := allowedSort[filter.SortBy]
	if !ok {
		column = "ar.time_in"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT ar.id, ar.subject_id, ar.session_id, ar.attendance_date, ar.time_in, ar.time_out, ar.created_at,
        s.full_name AS subject_name, ls.name AS session_name, c.name AS course_name
        %s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, whereClause, column, order, size, offset)
	var rows []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}

// ListForExport returns every row in the date range ordered chronologically.
func (r *AttendanceRepository) ListForExport(ctx context.Context, params models.ExportJobParams, from, to time.Time) ([]models.AttendanceRecordDetail, error) {
	where := []string{"ar.attendance_date >= $1", "ar.attendance_date <= $2"}
	args := []interface{}{from, to}
	if params.SessionID != "" {
		where = append(where, fmt.Sprintf("ar.session_id = $%d", len(args)+1))
		args = append(args, params.SessionID)
	}
	if params.SubjectID != "" {
		where = append(where, fmt.Sprintf("ar.subject_id = $%d", len(args)+1))
		args = append(args, params.SubjectID)
	}
	query := fmt.Sprintf(`SELECT ar.id, ar.subject_id, ar.session_id, ar.attendance_date, ar.time_in, ar.time_out, ar.created_at,
        s.full_name AS subject_name, ls.name AS session_name, c.name AS course_name
        FROM attendance_records ar
        JOIN subjects s ON s.id = ar.subject_id
        JOIN lab_sessions ls ON ls.id = ar.session_id
        LEFT JOIN courses c ON c.id = ls.course_id
        WHERE %s ORDER BY ar.attendance_date ASC, ar.time_in ASC`, strings.Join(where, " AND "))
	var rows []models.AttendanceRecordDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance for export: %w", err)
	}
	return rows, nil
}
