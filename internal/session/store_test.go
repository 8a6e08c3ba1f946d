package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/stockroom/internal/models"
)

func testIdentity() *models.Identity {
	return &models.Identity{ID: 7, Email: "a@b.com", Role: models.RoleWorker}
}

func TestStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend)

	require.NoError(t, store.Save(ctx, "tok-1", testIdentity()))

	token, ok, err := backend.Get(CredentialKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)

	raw, ok, err := backend.Get(IdentityKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"id":7,"email":"a@b.com","role":"worker"}`, raw)

	// A fresh store over the same backend restores the session
	restored := NewStore(backend).Load(ctx)
	assert.Equal(t, "tok-1", restored.Credential)
	require.NotNil(t, restored.Identity)
	assert.Equal(t, *testIdentity(), *restored.Identity)
}

func TestStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("empty backend yields empty session", func(t *testing.T) {
		store := NewStore(NewMemoryBackend())
		assert.True(t, store.Load(ctx).Empty())
	})

	t.Run("corrupt identity clears both values", func(t *testing.T) {
		backend := NewMemoryBackend()
		require.NoError(t, backend.Put(map[string]string{
			CredentialKey: "tok-x",
			IdentityKey:   "not-json",
		}))

		store := NewStore(backend)
		loaded := store.Load(ctx)
		assert.True(t, loaded.Empty())
		assert.Empty(t, loaded.Credential)
		assert.Nil(t, loaded.Identity)
		assert.Equal(t, 0, backend.Len())

		// Subsequent loads are also empty
		assert.True(t, store.Load(ctx).Empty())
		assert.True(t, NewStore(backend).Load(ctx).Empty())
	})

	t.Run("wrong shape identity is treated as corruption", func(t *testing.T) {
		backend := NewMemoryBackend()
		require.NoError(t, backend.Put(map[string]string{
			CredentialKey: "tok-x",
			IdentityKey:   `{"id":7,"email":"a@b.com"}`,
		}))

		assert.True(t, NewStore(backend).Load(ctx).Empty())
		assert.Equal(t, 0, backend.Len())
	})

	t.Run("credential without identity is cleared", func(t *testing.T) {
		backend := NewMemoryBackend()
		require.NoError(t, backend.Put(map[string]string{CredentialKey: "tok-x"}))

		store := NewStore(backend)
		assert.True(t, store.Load(ctx).Empty())
		assert.Equal(t, 0, backend.Len())

		_, ok := store.Credential(ctx)
		assert.False(t, ok)
	})
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend)

	require.NoError(t, store.Save(ctx, "tok-1", testIdentity()))
	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, backend.Len())

	// Idempotent
	require.NoError(t, store.Clear(ctx))
	assert.True(t, store.Load(ctx).Empty())
}

func TestStore_Save_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend)

	assert.Error(t, store.Save(ctx, "", testIdentity()))
	assert.ErrorIs(t, store.Save(ctx, "tok", &models.Identity{ID: 1}), models.ErrInvalidIdentity)
	assert.Equal(t, 0, backend.Len())
}

func TestStore_Credential(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	raw, err := json.Marshal(testIdentity())
	require.NoError(t, err)
	require.NoError(t, backend.Put(map[string]string{CredentialKey: "tok-1", IdentityKey: string(raw)}))

	// Loads lazily on first use
	store := NewStore(backend)
	token, ok := store.Credential(ctx)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)
}

func TestStore_Invalidate_Concurrent(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend)
	require.NoError(t, store.Save(ctx, "tok-1", testIdentity()))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		cleared int
	)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Invalidate(ctx)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				cleared++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, cleared)
	assert.Equal(t, 0, backend.Len())
}

func TestFileBackend(t *testing.T) {
	t.Run("creates directory with correct permissions", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "state")

		backend, err := NewFileBackend(dir)
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
		assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
		assert.Equal(t, filepath.Join(dir, "session.json"), backend.Path())
	})

	t.Run("put get delete", func(t *testing.T) {
		backend, err := NewFileBackend(t.TempDir())
		require.NoError(t, err)

		_, ok, err := backend.Get(CredentialKey)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, backend.Put(map[string]string{CredentialKey: "tok", IdentityKey: "{}"}))

		v, ok, err := backend.Get(CredentialKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "tok", v)

		info, err := os.Stat(backend.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

		require.NoError(t, backend.Delete(CredentialKey, IdentityKey))
		require.NoError(t, backend.Delete(CredentialKey))

		_, ok, err = backend.Get(IdentityKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("survives restart", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()

		backend, err := NewFileBackend(dir)
		require.NoError(t, err)
		require.NoError(t, NewStore(backend).Save(ctx, "tok-1", testIdentity()))

		reopened, err := NewFileBackend(dir)
		require.NoError(t, err)
		loaded := NewStore(reopened).Load(ctx)
		assert.Equal(t, "tok-1", loaded.Credential)
		require.NotNil(t, loaded.Identity)
		assert.Equal(t, models.RoleWorker, loaded.Identity.Role)
	})

	t.Run("unreadable document loads as empty", func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "session.json"), []byte("{"), 0600))

		backend, err := NewFileBackend(dir)
		require.NoError(t, err)

		assert.True(t, NewStore(backend).Load(ctx).Empty())
	})
}
