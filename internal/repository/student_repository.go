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

const studentColumns = `s.id, s.name, s.enrollment_id, s.email, s.phone, s.github, s.linkedin, s.profile_image,
        s.course, s.status, s.modules,
        s.attendance_percentage, s.skills_acquired, s.learning_streak, s.created_at, s.updated_at`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns a page of students matching the filter together with the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	ilike := func(column, value string) {
		if value = strings.TrimSpace(value); value != "" {
			args = append(args, "%"+value+"%")
			conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
		}
	}
	ilike("s.name", filter.Name)
	ilike("s.enrollment_id", filter.EnrollmentID)
	ilike("s.email", filter.Email)
	ilike("s.course", filter.Course)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("s.status = $%d", len(args)))
	}
	if filter.BatchID != "" {
		args = append(args, filter.BatchID)
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM batch_students bs WHERE bs.student_id = s.id AND bs.batch_id = $%d)", len(args)))
	}
	where := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	query := fmt.Sprintf(`SELECT %s FROM students s WHERE %s ORDER BY s.created_at DESC LIMIT %d OFFSET %d`,
		studentColumns, where, size, (page-1)*size)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students s WHERE "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListAll returns every student in insertion order, optionally narrowed by a
// case-insensitive course substring.
func (r *StudentRepository) ListAll(ctx context.Context, course string) ([]models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s", studentColumns)
	args := []interface{}{}
	if course = strings.TrimSpace(course); course != "" {
		query += " WHERE s.course ILIKE $1"
		args = append(args, "%"+course+"%")
	}
	query += " ORDER BY s.created_at, s.id"

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// FindByID fetches a single student.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students s WHERE s.id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByEnrollmentID checks uniqueness of an enrollment id, ignoring excludeID.
func (r *StudentRepository) ExistsByEnrollmentID(ctx context.Context, enrollmentID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM students WHERE enrollment_id = $1"
	args := []interface{}{enrollmentID}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment id: %w", err)
	}
	return true, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if student.Modules == nil {
		student.Modules = []string{}
	}
	if student.SkillsAcquired == nil {
		student.SkillsAcquired = []string{}
	}
	const query = `INSERT INTO students (id, name, enrollment_id, email, phone, github, linkedin, profile_image, course, status,
        modules, attendance_percentage, skills_acquired, learning_streak, created_at, updated_at)
        VALUES (:id, :name, :enrollment_id, :email, :phone, :github, :linkedin, :profile_image, :course, :status, :modules, :attendance_percentage, :skills_acquired, :learning_streak, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update overwrites the mutable profile fields.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	const query = `UPDATE students SET name = :name, enrollment_id = :enrollment_id, email = :email, phone = :phone, github = :github,
        linkedin = :linkedin, profile_image = :profile_image, course = :course, status = :status, modules = :modules, skills_acquired = :skills_acquired, learning_streak = :learning_streak, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// UpdateAttendancePercentage refreshes the cached attendance value.
func (r *StudentRepository) UpdateAttendancePercentage(ctx context.Context, id string, pct float64) error {
	const query = `UPDATE students SET attendance_percentage = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, pct, time.Now().UTC()); err != nil {
		return fmt.Errorf("update attendance percentage: %w", err)
	}
	return nil
}

// Count returns the number of students.
func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}

// AverageAttendance returns the mean cached attendance, 0 without students.
func (r *StudentRepository) AverageAttendance(ctx context.Context) (float64, error) {
	var avg float64
	if err := r.db.GetContext(ctx, &avg, "SELECT COALESCE(AVG(attendance_percentage), 0) FROM students"); err != nil {
		return 0, fmt.Errorf("average attendance: %w", err)
	}
	return avg, nil
}
