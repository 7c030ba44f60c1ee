package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	_, err := b.Load(ctx, ActorShopper)
	require.ErrorIs(t, err, ErrNoSession)

	want := &Identity{
		Actor:     ActorShopper,
		ID:        "u1",
		Email:     "u1@example.com",
		Profile:   map[string]any{"city": "Lagos"},
		ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, b.Save(ctx, want))

	got, err := b.Load(ctx, ActorShopper)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, "Lagos", got.Profile["city"])
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	_, err = b.Load(ctx, ActorVendor)
	require.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, b.Delete(ctx, ActorShopper))
	require.NoError(t, b.Delete(ctx, ActorShopper))
	_, err = b.Load(ctx, ActorShopper)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestMemoryBackend(t *testing.T) {
	testBackend(t, NewMemoryBackend())
}

func TestFileBackend(t *testing.T) {
	b, err := NewFileBackend(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)
	testBackend(t, b)
}

func TestFileBackendPermissions(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, b.Save(context.Background(), &Identity{Actor: ActorAdmin, ID: "root"}))

	info, err := os.Stat(b.Path(ActorAdmin))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = os.Stat(b.Path(ActorAdmin) + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind")
}

func TestFileBackendCorrupt(t *testing.T) {
	b, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(b.Path(ActorVendor), []byte("{not json"), 0o600))

	_, err = b.Load(context.Background(), ActorVendor)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)

	_, err = NewFileBackend("")
	assert.Error(t, err)
}

func TestStorePersistsThroughFileBackend(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileBackend(dir)
	require.NoError(t, err)
	ctx := context.Background()

	s, err := NewStore(ctx, ActorVendor, WithBackend(b))
	require.NoError(t, err)
	_, err = s.Confirm(ctx, &fakeAuth{identity: &Identity{ID: "v9", Name: "Acme"}})
	require.NoError(t, err)

	reopened, err := NewStore(ctx, ActorVendor, WithBackend(b))
	require.NoError(t, err)
	require.True(t, reopened.IsAuthenticated())
	assert.Equal(t, "Acme", reopened.Identity().Name)
}
