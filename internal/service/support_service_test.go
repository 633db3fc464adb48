package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type fakeSupportRepo struct {
	requests map[string]*models.SupportRequest
	filter   models.SupportFilter
}

func (f *fakeSupportRepo) List(_ context.Context, filter models.SupportFilter) ([]models.SupportRequest, error) {
	f.filter = filter
	return nil, nil
}

func (f *fakeSupportRepo) FindByID(_ context.Context, id string) (*models.SupportRequest, error) {
	r, ok := f.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (f *fakeSupportRepo) Create(_ context.Context, r *models.SupportRequest) error {
	r.ID = "sup-new"
	f.requests[r.ID] = r
	return nil
}

func (f *fakeSupportRepo) Update(_ context.Context, r *models.SupportRequest) error {
	f.requests[r.ID] = r
	return nil
}

func newSupportServiceForTest() (*SupportService, *fakeSupportRepo) {
	repo := &fakeSupportRepo{requests: map[string]*models.SupportRequest{
		"r1": {ID: "r1", StudentID: "s1", StudentName: "Asha", Course: "Python", Topic: "Loops", Status: models.SupportPending},
	}}
	return NewSupportService(repo, nil, nil), repo
}

func TestSupportServiceCreate(t *testing.T) {
	svc, repo := newSupportServiceForTest()

	created, err := svc.Create(context.Background(), CreateSupportRequest{
		StudentID:   "s2",
		StudentName: "Ravi ",
		Course:      "DSA",
		Topic:       "Heaps",
		Description: "Need help with heapify",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SupportPending, created.Status)
	assert.Equal(t, "Ravi", created.StudentName)
	assert.Contains(t, repo.requests, "sup-new")

	_, err = svc.Create(context.Background(), CreateSupportRequest{StudentID: "s2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSupportServiceListNeverNil(t *testing.T) {
	svc, repo := newSupportServiceForTest()

	list, err := svc.List(context.Background(), models.SupportFilter{Status: "Pending"})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Equal(t, "Pending", repo.filter.Status)
}

func TestSupportServiceReplyAndResolve(t *testing.T) {
	svc, repo := newSupportServiceForTest()

	replied, err := svc.Reply(context.Background(), "r1", SupportReplyRequest{Reply: " Use a for loop "})
	require.NoError(t, err)
	require.NotNil(t, replied.Reply)
	assert.Equal(t, "Use a for loop", *replied.Reply)
	assert.Equal(t, models.SupportPending, replied.Status)

	resolved, err := svc.Resolve(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.SupportResolved, resolved.Status)
	assert.Equal(t, "Use a for loop", *repo.requests["r1"].Reply)

	_, err = svc.Reply(context.Background(), "r1", SupportReplyRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestSupportServiceScheduleBackup(t *testing.T) {
	svc, _ := newSupportServiceForTest()
	date := time.Date(2024, time.March, 20, 15, 0, 0, 0, time.UTC)

	scheduled, err := svc.ScheduleBackup(context.Background(), "r1", date)
	require.NoError(t, err)
	require.NotNil(t, scheduled.BackupClassDate)
	assert.Equal(t, date, *scheduled.BackupClassDate)
	assert.Equal(t, "Scheduled", *scheduled.BackupClassStatus)

	_, err = svc.ScheduleBackup(context.Background(), "r1", time.Time{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.ScheduleBackup(context.Background(), "missing", date)
	require.Error(t, err)
	assert.Equal(t, "support request not found", appErrors.FromError(err).Message)
}
