package models

import "time"

// SubjectRole separates regular students from administrators who bypass scheduling checks.
type SubjectRole string

const (
	RoleStandard SubjectRole = "STANDARD"
	RoleElevated SubjectRole = "ELEVATED"
)

// Valid returns true when the role is a supported value.
func (r SubjectRole) Valid() bool {
	return r == RoleStandard || r == RoleElevated
}

// Subject is a person who may present a credential. Rows are owned by the registration service.
type Subject struct {
	ID        string      `db:"id" json:"id"`
	FullName  string      `db:"full_name" json:"full_name"`
	CourseID  *string     `db:"course_id" json:"course_id,omitempty"`
	Course    *string     `db:"course_name" json:"course,omitempty"`
	Section   *string     `db:"section" json:"section,omitempty"`
	Role      SubjectRole `db:"role" json:"role"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// Elevated reports whether the subject bypasses enrollment checks.
func (s *Subject) Elevated() bool {
	return s != nil && s.Role == RoleElevated
}
