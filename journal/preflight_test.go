package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreflightMissingFileIsHealthy(t *testing.T) {
	res, err := Preflight(filepath.Join(t.TempDir(), "absent.db"), time.Second)
	require.NoError(t, err)
	assert.True(t, res.Healthy)
	assert.False(t, res.Quarantined)
}

func TestPreflightHealthyJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Record(Entry{RequestID: "a", FetchedAt: time.Now(), Day: 1}))
	require.NoError(t, j.Close())

	res, err := Preflight(path, time.Second)
	require.NoError(t, err)
	assert.True(t, res.Healthy)
	assert.FileExists(t, path)
}

func TestOpenQuarantinesCorruptJournal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")
	require.NoError(t, os.WriteFile(path, []byte("not a sqlite database"), 0o644))
	require.NoError(t, os.WriteFile(path+"-wal", []byte("sidecar"), 0o644))

	res, err := Preflight(path, time.Second)
	require.NoError(t, err)
	require.True(t, res.Quarantined)
	assert.True(t, strings.HasPrefix(res.QuarantinePath, path+".bad-"))
	assert.FileExists(t, res.QuarantinePath)
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+"-wal")

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()
	entries, err := j.Recent(5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
