package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var studentRowColumns = []string{"id", "name", "enrollment_id", "email", "phone", "github", "linkedin", "profile_image", "course", "status", "modules",
	"attendance_percentage", "skills_acquired", "learning_streak", "created_at", "updated_at"}

func studentRow(rows *sqlmock.Rows, id, name, course string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, name, "ENR-"+id, id+"@mail.test", "", "https://github.com/"+id, "", "", course, "Ongoing", "{HTML,CSS}", 80.0, "{}", 2, now, now)
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := studentRow(sqlmock.NewRows(studentRowColumns), "s1", "Asha", "Web Development")
	mock.ExpectQuery(regexp.QuoteMeta("FROM students s WHERE 1=1 AND s.name ILIKE $1 AND s.status = $2 AND EXISTS (SELECT 1 FROM batch_students bs WHERE bs.student_id = s.id AND bs.batch_id = $3) ORDER BY s.created_at DESC LIMIT 10 OFFSET 10")).
		WithArgs("%ash%", "Ongoing", "b1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students s WHERE 1=1 AND s.name ILIKE $1")).
		WithArgs("%ash%", "Ongoing", "b1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Name: " ash ", Status: "Ongoing", BatchID: "b1", Page: 2, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, []string{"HTML", "CSS"}, []string(students[0].Modules))
	assert.Equal(t, "https://github.com/s1", students[0].GitHub)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListAllByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := studentRow(sqlmock.NewRows(studentRowColumns), "s1", "Asha", "Python")
	mock.ExpectQuery(regexp.QuoteMeta("FROM students s WHERE s.course ILIKE $1 ORDER BY s.created_at, s.id")).
		WithArgs("%python%").
		WillReturnRows(rows)

	students, err := repo.ListAll(context.Background(), "python")
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByEnrollmentID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE enrollment_id = $1 AND id <> $2 LIMIT 1")).
		WithArgs("ENR-1", "s1").
		WillReturnError(sql.ErrNoRows)
	exists, err := repo.ExistsByEnrollmentID(context.Background(), "ENR-1", "s1")
	require.NoError(t, err)
	assert.False(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE enrollment_id = $1 LIMIT 1")).
		WithArgs("ENR-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	exists, err = repo.ExistsByEnrollmentID(context.Background(), "ENR-1", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "Asha", "ENR-1", "asha@mail.test", "", "https://github.com/asha", "", "", "Python", "Ongoing", sqlmock.AnyArg(), 0.0, sqlmock.AnyArg(), 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{Name: "Asha", EnrollmentID: "ENR-1", Email: "asha@mail.test", Course: "Python", GitHub: "https://github.com/asha", Status: models.StudentStatusOngoing}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.NotNil(t, student.Modules)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateAttendancePercentage(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET attendance_percentage = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("s1", 75.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateAttendancePercentage(context.Background(), "s1", 75))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryAverageAttendance(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(AVG(attendance_percentage), 0) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(62.5))

	avg, err := repo.AverageAttendance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 62.5, avg)
	assert.NoError(t, mock.ExpectationsWereMet())
}
