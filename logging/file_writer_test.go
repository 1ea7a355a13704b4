package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyFileWriterRollsOver(t *testing.T) {
	root := t.TempDir()
	t.Setenv("FTRACK_HOME", root)

	day := time.Date(2026, 10, 15, 23, 59, 0, 0, time.Local)
	w := newDailyFileWriter(DefaultConfig(), "engine")
	w.now = func() time.Time { return day }
	t.Cleanup(func() { w.Close() })

	_, err := w.Write([]byte("before midnight\n"))
	require.NoError(t, err)
	first := w.Path()
	assert.Equal(t, "engine-2026-10-15.log", filepath.Base(first))

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("after midnight\n"))
	require.NoError(t, err)
	second := w.Path()
	assert.Equal(t, "engine-2026-10-16.log", filepath.Base(second))

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "before midnight\n", string(data))
	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "after midnight\n", string(data))
}

func TestDailyFileWriterFixedPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ftrack.log")
	w := newDailyFileWriter(Config{File: FileSinkConfig{Enabled: true, Path: path}}, "api")
	t.Cleanup(func() { w.Close() })

	_, err := w.Write([]byte("one\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("two\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}
