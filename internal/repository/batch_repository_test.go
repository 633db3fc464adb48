package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

func TestBatchRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "course", "start_date", "end_date", "status", "progress", "created_at", "updated_at", "student_ids"}).
		AddRow("b1", "Morning", "Python", now, nil, "Ongoing", 40, now, now, "{s1,s2}")
	mock.ExpectQuery(regexp.QuoteMeta("FROM batches b LEFT JOIN batch_students bs ON bs.batch_id = b.id WHERE b.id = $1 GROUP BY b.id")).
		WithArgs("b1").
		WillReturnRows(rows)

	batch, err := repo.FindByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, []string(batch.StudentIDs))
	assert.Nil(t, batch.EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryCreateWritesMembers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO batches").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM batch_students WHERE batch_id = $1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_students (batch_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "s1").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO batch_students")).
		WithArgs(sqlmock.AnyArg(), "s2").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	batch := &models.Batch{Name: "Morning", Course: "Python", StartDate: time.Now(), Status: models.BatchStatusUpcoming, StudentIDs: []string{"s1", "s2"}}
	require.NoError(t, repo.Create(context.Background(), batch))
	assert.NotEmpty(t, batch.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryUpdateKeepsMembersWhenNil(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE batches SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	batch := &models.Batch{ID: "b1", Name: "Morning", Status: models.BatchStatusOngoing, Progress: 50}
	require.NoError(t, repo.Update(context.Background(), batch, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryFirstBatchNames(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "batch_id", "batch_name"}).
		AddRow("s1", "b1", "Morning").
		AddRow("s2", "b2", "Evening")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT ON (bs.student_id)")).WillReturnRows(rows)

	names, err := repo.FirstBatchNames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"s1": "Morning", "s2": "Evening"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}
