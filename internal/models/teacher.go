package models

import "time"

// TeacherRole is the RBAC role carried in tokens.
type TeacherRole string

const (
	RoleTeacher TeacherRole = "teacher"
	RoleAdmin   TeacherRole = "admin"
)

// Teacher is a portal operator account.
type Teacher struct {
	ID           string      `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Email        string      `db:"email" json:"email"`
	PasswordHash string      `db:"password_hash" json:"-"`
	Designation  string      `db:"designation" json:"designation"`
	ProfileImage *string     `db:"profile_image" json:"profileImage,omitempty"`
	Role         TeacherRole `db:"role" json:"role"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updatedAt"`
}

// TeacherFilter narrows the teacher listing.
type TeacherFilter struct {
	Search   string
	Page     int
	PageSize int
}
