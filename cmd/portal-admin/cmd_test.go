package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type fakeTeachers struct {
	got service.RegisterTeacherRequest
	err error
}

func (f *fakeTeachers) RegisterTeacher(_ context.Context, req service.RegisterTeacherRequest) (*models.TeacherInfo, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.TeacherInfo{ID: "t-1", Email: req.Email}, nil
}

type fakeSnapshots struct{ err error }

func (f fakeSnapshots) Generate(context.Context) (*models.SnapshotGenerationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.SnapshotGenerationResult{Message: "3 weekly snapshots generated for week 4", Count: 3, WeekNumber: 4}, nil
}

type fakeLeaderboard struct {
	filter  models.LeaderboardFilter
	entries []models.LeaderboardEntry
}

func (f *fakeLeaderboard) Get(_ context.Context, filter models.LeaderboardFilter) ([]models.LeaderboardEntry, bool, error) {
	f.filter = filter
	return f.entries, false, nil
}

type fakeSyncer struct{}

func (fakeSyncer) SyncAttendance(context.Context) (int, error) { return 7, nil }

func setup(out *bytes.Buffer) (*commandLine, *fakeTeachers, *fakeLeaderboard) {
	teachers := &fakeTeachers{}
	board := &fakeLeaderboard{}
	return &commandLine{
		out:         out,
		teachers:    teachers,
		snapshots:   fakeSnapshots{},
		leaderboard: board,
		students:    fakeSyncer{},
	}, teachers, board
}

func Test_commandLine_usage(t *testing.T) {
	out := &bytes.Buffer{}
	cli, _, _ := setup(out)

	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin"}), errHelp)
	assert.ErrorIs(t, cli.run(context.Background(), []string{"admin", "lol"}), errHelp)
	assert.Contains(t, out.String(), "addteacher -email EMAIL")
}

func Test_commandLine_addteacher(t *testing.T) {
	defer func(orig func(int) ([]byte, error)) { readPasswordFunc = orig }(readPasswordFunc)

	tests := []struct {
		name     string
		args     []string
		password string
		wantErr  error
	}{
		{name: "missing email", args: []string{"admin", "addteacher", "-name", "Ana"}, wantErr: errHelp},
		{name: "missing name", args: []string{"admin", "addteacher", "-email", "ana@portal.io"}, wantErr: errHelp},
		{name: "empty password", args: []string{"admin", "addteacher", "-email", "ana@portal.io", "-name", "Ana"}, wantErr: errHelp},
		{name: "ok", args: []string{"admin", "addteacher", "-email", "ana@portal.io", "-name", "Ana", "-role", "ADMIN"}, password: "password123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			cli, teachers, _ := setup(out)
			readPasswordFunc = func(int) ([]byte, error) { return []byte(tt.password), nil }

			err := cli.run(context.Background(), tt.args)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "password123", teachers.got.Password)
			assert.Equal(t, models.RoleAdmin, teachers.got.Role)
			assert.Contains(t, out.String(), "teacher ana@portal.io created with id t-1")
		})
	}
}

func Test_commandLine_addteacherConflict(t *testing.T) {
	defer func(orig func(int) ([]byte, error)) { readPasswordFunc = orig }(readPasswordFunc)
	readPasswordFunc = func(int) ([]byte, error) { return []byte("password123"), nil }

	out := &bytes.Buffer{}
	cli, teachers, _ := setup(out)
	teachers.err = appErrors.ErrConflict

	err := cli.run(context.Background(), []string{"admin", "addteacher", "-email", "ana@portal.io", "-name", "Ana"})
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))
}

func Test_commandLine_snapshotsAndSync(t *testing.T) {
	out := &bytes.Buffer{}
	cli, _, _ := setup(out)

	require.NoError(t, cli.run(context.Background(), []string{"admin", "snapshots"}))
	require.NoError(t, cli.run(context.Background(), []string{"admin", "syncattendance"}))
	assert.Contains(t, out.String(), "3 weekly snapshots generated for week 4\n")
	assert.Contains(t, out.String(), "attendance synced for 7 students\n")

	cli.snapshots = fakeSnapshots{err: errors.New("lock held")}
	assert.EqualError(t, cli.run(context.Background(), []string{"admin", "snapshots"}), "lock held")
}

func Test_commandLine_leaderboard(t *testing.T) {
	out := &bytes.Buffer{}
	cli, _, board := setup(out)

	require.NoError(t, cli.run(context.Background(), []string{"admin", "leaderboard"}))
	assert.Contains(t, out.String(), "no students found")
	assert.Equal(t, service.SortByOGI, board.filter.SortBy)

	board.entries = []models.LeaderboardEntry{{Rank: 1, Name: "Asha", EnrollmentID: "ENR-001", Course: "Python", Batch: "Morning", OGI: 81.5}}
	out.Reset()
	require.NoError(t, cli.run(context.Background(), []string{"admin", "leaderboard", "-sort", "attendance", "-course", "Python"}))
	assert.Equal(t, models.LeaderboardFilter{Course: "Python", SortBy: "attendance"}, board.filter)
	assert.Contains(t, out.String(), "Asha")
	assert.Contains(t, out.String(), "81.50")
}
