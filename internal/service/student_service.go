package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListAll(ctx context.Context, course string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByEnrollmentID(ctx context.Context, enrollmentID, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateAttendancePercentage(ctx context.Context, id string, pct float64) error
}

type studentSubmissionReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentSubmission, error)
	Count(ctx context.Context) (int, error)
}

type studentAttemptReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.StudentQuizAttempt, error)
	CountAttemptedQuizzes(ctx context.Context, studentID string) (int, error)
	Count(ctx context.Context) (int, error)
}

type studentAttendanceReader interface {
	HistoryByStudent(ctx context.Context, studentID string) ([]models.StudentAttendanceEntry, error)
	TallyByStudent(ctx context.Context) ([]models.AttendanceTally, error)
}

type snapshotHistoryReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.WeeklySnapshot, error)
}

// StudentRequest is the create/update payload for a student profile.
type StudentRequest struct {
	Name           string               `json:"name" validate:"required"`
	EnrollmentID   string               `json:"enrollmentId" validate:"required"`
	Email          string               `json:"email" validate:"required,email"`
	Phone          string               `json:"phone"`
	GitHub         string               `json:"github" validate:"omitempty,url"`
	LinkedIn       string               `json:"linkedin" validate:"omitempty,url"`
	ProfileImage   string               `json:"profileImage" validate:"omitempty,url"`
	Course         string               `json:"course" validate:"required"`
	Status         models.StudentStatus `json:"status" validate:"omitempty,oneof=Ongoing Completed"`
	Modules        []string             `json:"modules"`
	SkillsAcquired []string             `json:"skillsAcquired"`
	LearningStreak int                  `json:"learningStreak" validate:"gte=0"`
}

// StudentService handles student profiles and the activity views built on them.
type StudentService struct {
	repo        studentRepository
	assignments studentSubmissionReader
	quizzes     studentAttemptReader
	attendance  studentAttendanceReader
	snapshots   snapshotHistoryReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, assignments studentSubmissionReader, quizzes studentAttemptReader, attendance studentAttendanceReader,
	snapshots snapshotHistoryReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:        repo,
		assignments: assignments,
		quizzes:     quizzes,
		attendance:  attendance,
		snapshots:   snapshots,
		cache:       cache,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns the student profile with activity and overall progress.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	wrap := func(err error, msg string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}

	history, err := s.attendance.HistoryByStudent(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to load attendance")
	}
	subs, err := s.assignments.ListByStudent(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to load submissions")
	}
	attempts, err := s.quizzes.ListByStudent(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to load quiz attempts")
	}
	totalAssignments, err := s.assignments.Count(ctx)
	if err != nil {
		return nil, wrap(err, "failed to count assignments")
	}
	totalQuizzes, err := s.quizzes.Count(ctx)
	if err != nil {
		return nil, wrap(err, "failed to count quizzes")
	}
	attempted, err := s.quizzes.CountAttemptedQuizzes(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to count attempted quizzes")
	}

	submitted := 0
	for _, sub := range subs {
		if sub.Status != models.SubmissionNotSubmitted {
			submitted++
		}
	}

	return &models.StudentDetail{
		Student:               *student,
		AttendanceRecords:     nonNil(history),
		AssignmentSubmissions: nonNil(subs),
		QuizAttempts:          nonNil(attempts),
		ProgressPercentage:    int(percent(float64(submitted+attempted), float64(totalAssignments+totalQuizzes))),
	}, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.ensureUniqueEnrollment(ctx, req.EnrollmentID, ""); err != nil {
		return nil, err
	}
	student := &models.Student{Status: models.StudentStatusOngoing}
	applyStudentRequest(student, req)
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.cache.InvalidateAnalytics(ctx)
	return student, nil
}

// Update overwrites the profile fields of an existing student.
func (s *StudentService) Update(ctx context.Context, id string, req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueEnrollment(ctx, req.EnrollmentID, id); err != nil {
		return nil, err
	}
	applyStudentRequest(student, req)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.cache.InvalidateAnalytics(ctx)
	return student, nil
}

// Report assembles the downloadable record of a student.
func (s *StudentService) Report(ctx context.Context, id string) (*models.StudentReport, error) {
	student, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	wrap := func(err error, msg string) error {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}
	snapshots, err := s.snapshots.ListByStudent(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to load snapshots")
	}
	subs, err := s.assignments.ListByStudent(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to load submissions")
	}
	attempts, err := s.quizzes.ListByStudent(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to load quiz attempts")
	}
	history, err := s.attendance.HistoryByStudent(ctx, id)
	if err != nil {
		return nil, wrap(err, "failed to load attendance")
	}
	return &models.StudentReport{
		Student:               *student,
		WeeklySnapshots:       nonNil(snapshots),
		AssignmentSubmissions: nonNil(subs),
		QuizAttempts:          nonNil(attempts),
		AttendanceRecords:     nonNil(history),
		GeneratedAt:           s.now().UTC(),
	}, nil
}

// SyncAttendance recomputes every student's cached attendance percentage and
// returns the number of students updated.
func (s *StudentService) SyncAttendance(ctx context.Context) (int, error) {
	students, err := s.repo.ListAll(ctx, "")
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	tallies, err := s.attendance.TallyByStudent(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to tally attendance")
	}
	byStudent := make(map[string]models.AttendanceTally, len(tallies))
	for _, t := range tallies {
		byStudent[t.Key] = t
	}

	for _, student := range students {
		t := byStudent[student.ID]
		pct := AttendanceRate(t.Present, t.Total())
		if err := s.repo.UpdateAttendancePercentage(ctx, student.ID, pct); err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance percentage")
		}
	}
	s.cache.InvalidateAnalytics(ctx)
	s.logger.Info("attendance percentages synced", zap.Int("students", len(students)))
	return len(students), nil
}

func (s *StudentService) find(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *StudentService) ensureUniqueEnrollment(ctx context.Context, enrollmentID, excludeID string) error {
	exists, err := s.repo.ExistsByEnrollmentID(ctx, enrollmentID, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment id")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "enrollment id already used")
	}
	return nil
}

func applyStudentRequest(student *models.Student, req StudentRequest) {
	student.Name = strings.TrimSpace(req.Name)
	student.EnrollmentID = strings.TrimSpace(req.EnrollmentID)
	student.Email = strings.TrimSpace(req.Email)
	student.Phone = req.Phone
	student.GitHub = strings.TrimSpace(req.GitHub)
	student.LinkedIn = strings.TrimSpace(req.LinkedIn)
	student.ProfileImage = strings.TrimSpace(req.ProfileImage)
	student.Course = strings.TrimSpace(req.Course)
	if req.Status != "" {
		student.Status = req.Status
	}
	student.Modules = nonNil(req.Modules)
	student.SkillsAcquired = nonNil(req.SkillsAcquired)
	student.LearningStreak = req.LearningStreak
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
