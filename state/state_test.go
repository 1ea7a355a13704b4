package state

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/grovetools/ftrack/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sortPref struct {
	Sort  string `json:"sort"`
	Order string `json:"order"`
}

// runStoreContract exercises the behaviour every backend must share.
func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("Get missing key", func(t *testing.T) {
		_, ok, err := s.Get(ctx, "auth")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "auth", []byte(`{"token":"t1"}`)))
		value, ok, err := s.Get(ctx, "auth")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.JSONEq(t, `{"token":"t1"}`, string(value))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "auth", []byte(`{"token":"t2"}`)))
		value, _, err := s.Get(ctx, "auth")
		require.NoError(t, err)
		assert.JSONEq(t, `{"token":"t2"}`, string(value))
	})

	t.Run("JSON helpers", func(t *testing.T) {
		require.NoError(t, SetJSON(ctx, s, "clientsSort", sortPref{Sort: "name", Order: "asc"}))
		var got sortPref
		ok, err := GetJSON(ctx, s, "clientsSort", &got)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, sortPref{Sort: "name", Order: "asc"}, got)
	})

	t.Run("Malformed JSON surfaces as decode error", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, "broken", []byte(`{not json`)))
		var got sortPref
		ok, err := GetJSON(ctx, s, "broken", &got)
		assert.Error(t, err)
		assert.False(t, ok)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "auth"))
		_, ok, err := s.Get(ctx, "auth")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, s.Delete(ctx, "auth"), "deleting an absent key is not an error")

		_, ok, err = s.Get(ctx, "clientsSort")
		require.NoError(t, err)
		assert.True(t, ok, "other keys survive")
	})
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yml")
	s := NewFileStore(path)
	runStoreContract(t, s)

	assert.Equal(t, path, s.Path())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yml")
	require.NoError(t, os.WriteFile(path, []byte(":::not yaml"), 0600))
	s := NewFileStore(path)

	_, _, err := s.Get(context.Background(), "auth")
	assert.Error(t, err)

	require.NoError(t, s.Set(context.Background(), "auth", []byte(`{}`)), "a write replaces the corrupt file")
	_, ok, err := s.Get(context.Background(), "auth")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFileStoreReadersNeverSeePartialWrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yml")
	writer := NewFileStore(path)
	reader := NewFileStore(path)
	require.NoError(t, writer.Set(ctx, "auth", []byte(`{"token":"t1","refreshToken":"r1"}`)))

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < 300; i++ {
			if err := writer.Set(ctx, "clientsSort", []byte(`{"sort":"name","order":"asc"}`)); err != nil {
				t.Errorf("set: %v", err)
				return
			}
		}
	}()

	missing := 0
	for reading := true; reading; {
		select {
		case <-done:
			reading = false
		default:
		}
		_, ok, err := reader.Get(ctx, "auth")
		require.NoError(t, err)
		if !ok {
			missing++
		}
	}
	wg.Wait()

	assert.Zero(t, missing, "auth was never deleted")
	value, ok, err := reader.Get(ctx, "auth")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"token":"t1","refreshToken":"r1"}`, string(value))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	runStoreContract(t, s)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	s, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "auth", []byte(`{"token":"t1"}`)))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer s.Close()
	value, ok, err := s.Get(ctx, "auth")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"token":"t1"}`, string(value))
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("FTRACK_TEST_REDIS_URL")
	if url == "" {
		t.Skip("FTRACK_TEST_REDIS_URL not set")
	}
	s, err := NewRedisStore(context.Background(), url, "ftrack-test:"+t.Name()+":")
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		s.Delete(ctx, "auth")
		s.Delete(ctx, "clientsSort")
		s.Delete(ctx, "broken")
		s.Close()
	})

	runStoreContract(t, s)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(context.Background(), config.StorageConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "s.yml")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(context.Background(), config.StorageConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "s.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	s.Close()

	s, err = Open(context.Background(), config.StorageConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(context.Background(), config.StorageConfig{Backend: "etcd"})
	assert.Error(t, err)
}
