package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authify/authify-gateway/internal/core/domain"
)

func loggedIn(id string, ttl time.Duration) *domain.Session {
	u := domain.NewUser("ann@example.com", "Ann", "ROLE_USER")
	s := domain.NewSession(id, time.Now(), ttl)
	s.State = domain.SessionState{User: &u}
	s.BackendCookies = []domain.Cookie{{Name: "jwt", Value: "tok"}}
	return s
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, loggedIn("a", time.Hour)))
	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.State.User.Email)

	// Mutating the returned copy does not touch the stored one.
	got.ClearAuth()
	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, again.State.LoggedIn())

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, loggedIn("short", time.Minute)))
	require.NoError(t, store.Save(ctx, loggedIn("long", time.Hour)))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, loggedIn("short2", time.Minute)))
	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, store.Sweep())

	_, err = store.Get(ctx, "long")
	assert.NoError(t, err)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)
	ctx := context.Background()

	_, err := store.Get(ctx, "cli")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, store.Save(ctx, loggedIn("cli", time.Hour)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// A second store over the same file sees the session.
	got, err := NewFileStore(path).Get(ctx, "cli")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.BackendCookies[0].Value)
	assert.Equal(t, "Ann", got.State.User.Name)

	require.NoError(t, store.Delete(ctx, "cli"))
	_, err = store.Get(ctx, "cli")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStore(path).Get(context.Background(), "cli")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMemoryLimiter(t *testing.T) {
	lim := NewMemoryLimiter(60 * time.Second)
	now := time.Now()
	lim.now = func() time.Time { return now }
	ctx := context.Background()

	ok, _, _ := lim.Allow(ctx, "verify_account", "ann@example.com")
	assert.True(t, ok)

	now = now.Add(20 * time.Second)
	ok, wait, _ := lim.Allow(ctx, "verify_account", "ann@example.com")
	assert.False(t, ok)
	assert.Equal(t, 40*time.Second, wait)

	ok, _, _ = lim.Allow(ctx, "verify_account", "ben@example.com")
	assert.True(t, ok)

	now = now.Add(40 * time.Second)
	ok, _, _ = lim.Allow(ctx, "verify_account", "ann@example.com")
	assert.True(t, ok)
}

func TestMemoryLimiter_StartGatesFirstResend(t *testing.T) {
	lim := NewMemoryLimiter(60 * time.Second)
	now := time.Now()
	lim.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, lim.Start(ctx, "password_reset", "ann@example.com"))

	ok, wait, err := lim.Allow(ctx, "password_reset", "ann@example.com")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 60*time.Second, wait)

	ok, _, _ = lim.Allow(ctx, "verify_account", "ann@example.com")
	assert.True(t, ok, "other flows keep their own window")

	now = now.Add(61 * time.Second)
	ok, _, _ = lim.Allow(ctx, "password_reset", "ann@example.com")
	assert.True(t, ok)
}

func TestMemoryLimiter_Sweep(t *testing.T) {
	lim := NewMemoryLimiter(60 * time.Second)
	now := time.Now()
	lim.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, lim.Start(ctx, "verify_account", "ann@example.com"))
	now = now.Add(30 * time.Second)
	require.NoError(t, lim.Start(ctx, "verify_account", "ben@example.com"))

	assert.Equal(t, 0, lim.Sweep())

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, lim.Sweep())
	assert.Len(t, lim.last, 1)

	ok, wait, _ := lim.Allow(ctx, "verify_account", "ben@example.com")
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, wait)
}
