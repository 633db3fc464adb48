package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type teacherRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
}

// AuthConfig defines token signing parameters.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterTeacherRequest creates a teacher account.
type RegisterTeacherRequest struct {
	Name        string             `json:"name" validate:"required"`
	Email       string             `json:"email" validate:"required,email"`
	Password    string             `json:"password" validate:"required,min=8"`
	Designation string             `json:"designation"`
	Role        models.TeacherRole `json:"role" validate:"omitempty,oneof=teacher admin"`
}

// AuthService handles teacher login and account administration.
type AuthService struct {
	repo      teacherRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo teacherRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiration <= 0 {
		config.Expiration = 24 * time.Hour
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login verifies credentials and issues a signed token.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "email and password are required")
	}

	teacher, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(teacher.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, err := s.generateToken(teacher)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create token")
	}
	s.logger.Info("teacher logged in", zap.String("teacher_id", teacher.ID))
	return &models.LoginResponse{Token: token, Teacher: teacherInfo(teacher)}, nil
}

// ValidateToken parses and validates a token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}
	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// RegisterTeacher creates an account with a bcrypt password hash.
func (s *AuthService) RegisterTeacher(ctx context.Context, req RegisterTeacherRequest) (*models.TeacherInfo, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	designation := strings.TrimSpace(req.Designation)
	if designation == "" {
		designation = "Instructor"
	}
	teacher := &models.Teacher{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		Designation:  designation,
		Role:         req.Role,
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	info := teacherInfo(teacher)
	return &info, nil
}

// ListTeachers returns a page of teacher profiles.
func (s *AuthService) ListTeachers(ctx context.Context, filter models.TeacherFilter) ([]models.TeacherInfo, *models.Pagination, error) {
	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	out := make([]models.TeacherInfo, 0, len(teachers))
	for i := range teachers {
		out = append(out, teacherInfo(&teachers[i]))
	}
	return out, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *AuthService) generateToken(teacher *models.Teacher) (string, error) {
	issuedAt := s.now().UTC()
	claims := &models.JWTClaims{
		TeacherID: teacher.ID,
		Email:     teacher.Email,
		Role:      teacher.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   teacher.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.Expiration)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func teacherInfo(t *models.Teacher) models.TeacherInfo {
	return models.TeacherInfo{
		ID:           t.ID,
		Name:         t.Name,
		Email:        t.Email,
		Designation:  t.Designation,
		ProfileImage: t.ProfileImage,
		Role:         t.Role,
	}
}
