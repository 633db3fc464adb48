package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
)

var reportJobRowColumns = []string{"id", "type", "params", "status", "progress", "result_url", "created_by", "created_at", "finished_at", "error_message"}

func TestReportRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReportRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO report_jobs")).
		WithArgs(sqlmock.AnyArg(), "leaderboard", sqlmock.AnyArg(), "QUEUED", 0, nil, "teacher-1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ReportJob{
		Type:      models.ReportTypeLeaderboard,
		Params:    models.ReportJobParams{Format: models.ReportFormatCSV, SortBy: "OGI"},
		CreatedBy: "teacher-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))

	rows := sqlmock.NewRows(reportJobRowColumns).
		AddRow(job.ID, "leaderboard", `{"format":"csv","sortBy":"OGI"}`, "QUEUED", 0, nil, "teacher-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, params, status, progress, result_url, created_by, created_at, finished_at, error_message FROM report_jobs WHERE id = $1")).
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, job.ID, fetched.ID)
	require.Equal(t, "OGI", fetched.Params.SortBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE id = $1")).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReportRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	now := time.Now()
	status := models.ReportStatusFinished
	progress := 100
	result := "/api/v1/export/token"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, progress = $2, result_url = $3, finished_at = $4 WHERE id = $5")).
		WithArgs(status, progress, result, now, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Update(context.Background(), "job-1", ReportJobChange{
		Status:     &status,
		Progress:   &progress,
		ResultURL:  &result,
		FinishedAt: &now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListQueued(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows(reportJobRowColumns).
		AddRow("job-1", "attendance", `{"format":"pdf","batchId":"b1"}`, "QUEUED", 0, nil, "teacher-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2")).
		WithArgs(models.ReportStatusQueued, 20).
		WillReturnRows(rows)

	jobs, err := repo.ListQueued(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "b1", jobs[0].Params.BatchID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryListFinishedBefore(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows(reportJobRowColumns).
		AddRow("job-1", "student_report", `{"format":"csv","studentId":"s1"}`, "FINISHED", 100, "/api/v1/export/token", "teacher-1", time.Now().Add(-48*time.Hour), time.Now().Add(-25*time.Hour), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM report_jobs WHERE status = $1 AND finished_at IS NOT NULL AND finished_at < $2 ORDER BY finished_at ASC LIMIT $3")).
		WithArgs(models.ReportStatusFinished, sqlmock.AnyArg(), 50).
		WillReturnRows(rows)

	jobs, err := repo.ListFinishedBefore(context.Background(), time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepositoryUpdateFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	status := models.ReportStatusFailed
	msg := "student not found"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE report_jobs SET status = $1, error_message = $2 WHERE id = $3")).
		WithArgs(status, msg, "job-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), "job-2", ReportJobChange{Status: &status, ErrorMessage: &msg}))
	require.NoError(t, repo.Update(context.Background(), "job-2", ReportJobChange{}))
	require.NoError(t, mock.ExpectationsWereMet())
}
