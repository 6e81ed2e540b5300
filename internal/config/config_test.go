package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, Default(), s)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	s := Default()
	s.IgnoredURLs = []string{"https://example.com/ignored"}
	s.Sources = []SourceConfig{{Path: "/x/Bookmarks", Folders: []string{"Work"}}}

	require.NoError(t, Save(dir, s))

	got, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, s, got)
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Save(dir, Default()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp.")
	}
	require.FileExists(t, filepath.Join(dir, SettingsPath))
}

func TestLockAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	release, err := Lock(dir)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, LockFile))

	_, err = Lock(dir)
	require.ErrorIs(t, err, ErrAlreadyRunning)

	release()
	require.NoFileExists(t, filepath.Join(dir, LockFile))

	release2, err := Lock(dir)
	require.NoError(t, err)
	release2()
}

func TestLockReclaimsStaleLock(t *testing.T) {
	dir := t.TempDir()
	stale := lockContents{PID: 999999999}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, atomicWrite(filepath.Join(dir, LockFile), data))

	release, err := Lock(dir)
	require.NoError(t, err)
	release()
}
