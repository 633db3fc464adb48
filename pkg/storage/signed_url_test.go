package storage

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "reports/leaderboard.csv")
	require.NoError(t, err)

	jobID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "reports/leaderboard.csv", path)
	assert.True(t, expiresAt.Equal(parsedExpiry))
}

func TestSignedURLExpiry(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	token, _, err := signer.Generate("job-1", "a.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, _, err = signer.Parse(token, false)
	assert.ErrorIs(t, err, ErrTokenExpired)

	jobID, _, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "a.csv")
	require.NoError(t, err)

	other := NewSignedURLSigner("other", time.Hour)
	_, _, _, err = other.Parse(token, false)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, _, err = signer.Parse("garbage", false)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLocalStorageLifecycle(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("reports/a.txt", []byte("hello"))
	require.NoError(t, err)

	f, err := store.Open(name)
	require.NoError(t, err)
	_ = f.Close()

	_, err = store.Save("../escape.txt", []byte("x"))
	require.NoError(t, err, "cleaned paths stay inside the root")

	old := time.Now().Add(-2 * time.Hour)
	path, err := store.resolve(name)
	require.NoError(t, err)
	require.NoError(t, os.Chtimes(path, old, old))

	removed, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Contains(t, removed, "reports/a.txt")

	require.NoError(t, store.Delete(name))
}
