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

	"github.com/noah-isme/academic-portal-api/internal/models"
)

const teacherColumns = `id, name, email, password_hash, designation, profile_image, role, created_at, updated_at`

// TeacherRepository manages persistence for teacher accounts.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching the filter along with the total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	base := "FROM teachers WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		base += " AND (LOWER(name) LIKE $1 OR LOWER(email) LIKE $1)"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", teacherColumns, base, size, (page-1)*size)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, "SELECT "+teacherColumns+" FROM teachers WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByEmail fetches a teacher by email, ignoring case.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, "SELECT "+teacherColumns+" FROM teachers WHERE LOWER(email) = LOWER($1)", email); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// ExistsByEmail reports whether an account already uses email.
func (r *TeacherRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM teachers WHERE LOWER(email) = LOWER($1) LIMIT 1", email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check teacher email: %w", err)
	}
	return true, nil
}

// Create inserts a new teacher account.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	teacher.CreatedAt, teacher.UpdatedAt = now, now
	if teacher.Role == "" {
		teacher.Role = models.RoleTeacher
	}
	const query = `INSERT INTO teachers (id, name, email, password_hash, designation, profile_image, role, created_at, updated_at)
        VALUES (:id, :name, :email, :password_hash, :designation, :profile_image, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}
