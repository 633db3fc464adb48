package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

// stubCacheRepo is an in-memory cache store keyed exactly as the services write.
type stubCacheRepo struct {
	store       map[string][]byte
	invalidated []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.invalidated = append(s.invalidated, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

func newTestCache() (*CacheService, *stubCacheRepo) {
	repo := &stubCacheRepo{}
	return NewCacheService(repo, nil, time.Minute, nil, true), repo
}

type fakeStudentRepo struct {
	students   []models.Student
	listAllErr error
	listCalls  int
	attendance map[string]float64
}

func (f *fakeStudentRepo) ListAll(_ context.Context, course string) ([]models.Student, error) {
	f.listCalls++
	if f.listAllErr != nil {
		return nil, f.listAllErr
	}
	var out []models.Student
	for _, s := range f.students {
		if course == "" || strings.Contains(strings.ToLower(s.Course), strings.ToLower(course)) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStudentRepo) List(_ context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	return f.students, len(f.students), nil
}

func (f *fakeStudentRepo) FindByID(_ context.Context, id string) (*models.Student, error) {
	for i := range f.students {
		if f.students[i].ID == id {
			s := f.students[i]
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) ExistsByEnrollmentID(_ context.Context, enrollmentID, excludeID string) (bool, error) {
	for _, s := range f.students {
		if s.EnrollmentID == enrollmentID && s.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	student.ID = "stu-new"
	f.students = append(f.students, *student)
	return nil
}

func (f *fakeStudentRepo) Update(_ context.Context, student *models.Student) error {
	for i := range f.students {
		if f.students[i].ID == student.ID {
			f.students[i] = *student
		}
	}
	return nil
}

func (f *fakeStudentRepo) UpdateAttendancePercentage(_ context.Context, id string, pct float64) error {
	if f.attendance == nil {
		f.attendance = map[string]float64{}
	}
	f.attendance[id] = pct
	return nil
}

type fakeScores struct {
	attempts []models.AttemptScore
	subs     []models.SubmissionScore
}

func (f *fakeScores) AttemptScores(_ context.Context, ids []string) ([]models.AttemptScore, error) {
	if ids == nil {
		return f.attempts, nil
	}
	keep := toSet(ids)
	var out []models.AttemptScore
	for _, a := range f.attempts {
		if _, ok := keep[a.StudentID]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeScores) SubmissionScores(_ context.Context, ids []string) ([]models.SubmissionScore, error) {
	if ids == nil {
		return f.subs, nil
	}
	keep := toSet(ids)
	var out []models.SubmissionScore
	for _, s := range f.subs {
		if _, ok := keep[s.StudentID]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeSnapshotStore struct {
	mu        sync.Mutex
	snapshots []models.WeeklySnapshot
	failAfter int
	inserts   int
}

func (f *fakeSnapshotStore) Insert(_ context.Context, snap *models.WeeklySnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter > 0 && f.inserts >= f.failAfter {
		return errStoreDown
	}
	f.inserts++
	f.snapshots = append(f.snapshots, *snap)
	return nil
}

func (f *fakeSnapshotStore) MaxWeekNumber(context.Context) (int, error) {
	max := 0
	for _, s := range f.snapshots {
		if s.WeekNumber > max {
			max = s.WeekNumber
		}
	}
	return max, nil
}

func (f *fakeSnapshotStore) ListByStudent(_ context.Context, studentID string) ([]models.WeeklySnapshot, error) {
	var out []models.WeeklySnapshot
	for _, s := range f.snapshots {
		if s.StudentID == studentID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSnapshotStore) RecentByStudents(ctx context.Context, ids []string, limit int) (map[string][]models.WeeklySnapshot, error) {
	out := make(map[string][]models.WeeklySnapshot, len(ids))
	for _, id := range ids {
		all, _ := f.ListByStudent(ctx, id)
		if len(all) > limit {
			all = all[len(all)-limit:]
		}
		if len(all) > 0 {
			out[id] = all
		}
	}
	return out, nil
}

func (f *fakeSnapshotStore) ListByWeekRange(_ context.Context, from, to int) ([]models.WeeklySnapshot, error) {
	var out []models.WeeklySnapshot
	for _, s := range f.snapshots {
		if s.WeekNumber >= from && s.WeekNumber <= to {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeBatchRepo struct {
	batches []models.Batch
	names   map[string]string
	updates int
}

func (f *fakeBatchRepo) List(context.Context) ([]models.Batch, error) {
	return f.batches, nil
}

func (f *fakeBatchRepo) FindByID(_ context.Context, id string) (*models.Batch, error) {
	for i := range f.batches {
		if f.batches[i].ID == id {
			b := f.batches[i]
			return &b, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeBatchRepo) Create(_ context.Context, batch *models.Batch) error {
	batch.ID = "batch-new"
	f.batches = append(f.batches, *batch)
	return nil
}

func (f *fakeBatchRepo) Update(_ context.Context, batch *models.Batch, members []string) error {
	f.updates++
	if members != nil {
		batch.StudentIDs = members
	}
	for i := range f.batches {
		if f.batches[i].ID == batch.ID {
			f.batches[i] = *batch
		}
	}
	return nil
}

func (f *fakeBatchRepo) FirstBatchNames(context.Context) (map[string]string, error) {
	return f.names, nil
}

type fakeLocker struct {
	err      error
	acquired int
	released int
}

func (f *fakeLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.acquired++
	return func(context.Context) error {
		f.released++
		return nil
	}, nil
}

var errStoreDown = errors.New("store down")

func toSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }
