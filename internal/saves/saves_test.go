package saves

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSave(t *testing.T, root, name, gameJSON string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, gameFileName), []byte(gameJSON), 0o644))
	return dir
}

func TestScan_MissingRootIsEmpty(t *testing.T) {
	s := NewScanner(filepath.Join(t.TempDir(), "does-not-exist"), testLogger())
	games, incomplete, err := s.Scan()
	require.NoError(t, err)
	assert.Empty(t, games)
	assert.Nil(t, incomplete)
}

func TestScan_CompleteAndIncompleteGames(t *testing.T) {
	root := t.TempDir()
	writeSave(t, root, "lighthouse", `{"id":"g1","name":"The Hollow Lighthouse"}`)

	// Interrupted generation: no game.json, but a tmp subdirectory.
	incDir := filepath.Join(root, "halfway")
	require.NoError(t, os.MkdirAll(filepath.Join(incDir, tmpDirName), 0o755))

	// Unrelated folder: no game.json and no tmp marker.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "notes"), 0o755))

	// Stray file at the root is ignored.
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.txt"), []byte("hi"), 0o644))

	s := NewScanner(root, testLogger())
	games, incomplete, err := s.Scan()
	require.NoError(t, err)

	require.Len(t, games, 1)
	assert.Equal(t, "The Hollow Lighthouse", games[0].Game.Name)

	require.NotNil(t, incomplete)
	assert.Equal(t, "halfway", incomplete.Name)
	assert.Equal(t, incDir, incomplete.Dir)
}

func TestScan_CorruptSaveIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeSave(t, root, "good", `{"id":"g1","name":"Good"}`)
	writeSave(t, root, "bad", `{not json`)

	s := NewScanner(root, testLogger())
	games, _, err := s.Scan()
	require.NoError(t, err)

	require.Len(t, games, 1)
	assert.Equal(t, "Good", games[0].Game.Name)
}

func TestClearIncomplete(t *testing.T) {
	root := t.TempDir()
	incDir := filepath.Join(root, "halfway")
	require.NoError(t, os.MkdirAll(filepath.Join(incDir, tmpDirName), 0o755))

	s := NewScanner(root, testLogger())
	require.NoError(t, s.ClearIncomplete(&Incomplete{Name: "halfway", Dir: incDir}))

	_, err := os.Stat(incDir)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.ClearIncomplete(nil))
}
