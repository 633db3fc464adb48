package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/repository"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
	"github.com/noah-isme/academic-portal-api/pkg/jobs"
)

type reportRepoStub struct {
	jobs map[string]*models.ReportJob
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{jobs: map[string]*models.ReportJob{}}
}

func (r *reportRepoStub) Create(_ context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	r.jobs[job.ID] = job
	return nil
}

func (r *reportRepoStub) GetByID(_ context.Context, id string) (*models.ReportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return job, nil
}

func (r *reportRepoStub) Update(_ context.Context, id string, params repository.ReportJobChange) error {
	job, ok := r.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (r *reportRepoStub) ListQueued(context.Context, int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range r.jobs {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *reportRepoStub) ListFinishedBefore(_ context.Context, cutoff time.Time, _ int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range r.jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, *job)
		}
	}
	return out, nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type failingGenerator struct{ err error }

func (f failingGenerator) Generate(context.Context, *models.ReportJob) (*ExportResult, error) {
	return nil, f.err
}

func TestReportServiceCreateJob(t *testing.T) {
	repo := newReportRepoStub()
	queue := &queueStub{}
	svc := NewReportService(repo, queue, nil, nil, nil, nil, ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), models.ReportRequest{Type: models.ReportTypeLeaderboard, Format: models.ReportFormatCSV}, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, resp.ID, queue.jobs[0].ID)
	assert.Equal(t, "teacher-1", repo.jobs[resp.ID].CreatedBy)
}

func TestReportServiceCreateJobValidation(t *testing.T) {
	svc := NewReportService(newReportRepoStub(), &queueStub{}, nil, nil, nil, nil, ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), models.ReportRequest{Type: models.ReportTypeStudent, Format: models.ReportFormatPDF}, "teacher-1")
	require.Error(t, err)
	assert.Equal(t, "studentId is required for student reports", appErrors.FromError(err).Message)

	_, err = svc.CreateJob(context.Background(), models.ReportRequest{Type: "grades", Format: models.ReportFormatCSV}, "teacher-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobEnqueueFailure(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, &queueStub{err: jobs.ErrQueueClosed}, nil, nil, nil, nil, ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), models.ReportRequest{Type: models.ReportTypeAttendance, Format: models.ReportFormatCSV}, "teacher-1")
	require.Error(t, err)
	require.Len(t, repo.jobs, 1)
	for _, job := range repo.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
		assert.NotNil(t, job.FinishedAt)
	}
}

func TestReportServiceGetStatusAccess(t *testing.T) {
	repo := newReportRepoStub()
	svc := NewReportService(repo, &queueStub{}, nil, nil, nil, nil, ReportServiceConfig{})
	resp, err := svc.CreateJob(context.Background(), models.ReportRequest{Type: models.ReportTypeAttendance, Format: models.ReportFormatCSV}, "teacher-1")
	require.NoError(t, err)

	status, err := svc.GetStatus(context.Background(), resp.ID, "teacher-1", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, models.ReportTypeAttendance, status.Type)
	assert.Nil(t, status.Error)

	_, err = svc.GetStatus(context.Background(), resp.ID, "teacher-2", models.RoleTeacher)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))

	_, err = svc.GetStatus(context.Background(), resp.ID, "teacher-2", models.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), "missing", "teacher-1", models.RoleAdmin)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestReportWorkerEndToEndDownload(t *testing.T) {
	repo := newReportRepoStub()
	queue := &queueStub{}
	exporter, _ := newExportServiceForTest(t)
	svc := NewReportService(repo, queue, exporter, nil, nil, nil, ReportServiceConfig{ResultTTL: time.Hour})
	worker := NewReportWorker(repo, exporter, nil, 2, nil)

	resp, err := svc.CreateJob(context.Background(), models.ReportRequest{Type: models.ReportTypeLeaderboard, Format: models.ReportFormatCSV}, "teacher-1")
	require.NoError(t, err)
	require.NoError(t, worker.Handle(context.Background(), queue.jobs[0]))

	job := repo.jobs[resp.ID]
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)

	token := extractToken(*job.ResultURL)
	download, err := svc.ResolveDownload(context.Background(), token)
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, models.ReportFormatCSV, download.Format)
	assert.Contains(t, download.Filename, "leaderboard_all_")

	_, err = svc.ResolveDownload(context.Background(), "garbage")
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestReportWorkerRetryThenFail(t *testing.T) {
	repo := newReportRepoStub()
	job := &models.ReportJob{ID: "job-1", Type: models.ReportTypeAttendance, Status: models.ReportStatusQueued}
	repo.jobs[job.ID] = job
	worker := NewReportWorker(repo, failingGenerator{err: errors.New("disk full")}, nil, 1, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 0})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "disk full", *job.ErrorMessage)
	assert.Nil(t, job.FinishedAt)

	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.NotNil(t, job.FinishedAt)
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	repo := newReportRepoStub()
	repo.jobs["a"] = &models.ReportJob{ID: "a", Type: models.ReportTypeLeaderboard, Status: models.ReportStatusQueued}
	repo.jobs["b"] = &models.ReportJob{ID: "b", Type: models.ReportTypeLeaderboard, Status: models.ReportStatusFinished}
	queue := &queueStub{}
	svc := NewReportService(repo, queue, nil, nil, nil, nil, ReportServiceConfig{})

	svc.RecoverPendingJobs(context.Background())
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, "a", queue.jobs[0].ID)
}

func TestReportServiceCleanupExpired(t *testing.T) {
	repo := newReportRepoStub()
	queue := &queueStub{}
	exporter, _ := newExportServiceForTest(t)
	svc := NewReportService(repo, queue, exporter, nil, nil, nil, ReportServiceConfig{ResultTTL: time.Hour})
	worker := NewReportWorker(repo, exporter, nil, 0, nil)

	resp, err := svc.CreateJob(context.Background(), models.ReportRequest{Type: models.ReportTypeLeaderboard, Format: models.ReportFormatCSV}, "teacher-1")
	require.NoError(t, err)
	require.NoError(t, worker.Handle(context.Background(), queue.jobs[0]))
	job := repo.jobs[resp.ID]

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	svc.cleanupExpired(context.Background())

	_, _, _, err = exporter.ParseToken(extractToken(*job.ResultURL), true)
	require.NoError(t, err)
	_, err = svc.ResolveDownload(context.Background(), extractToken(*job.ResultURL))
	require.Error(t, err)
}
