package keylog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpenJournalCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "thing.txt")

	j, err := OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestJournalAppendKeepsExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thing.txt")
	require.NoError(t, os.WriteFile(path, []byte("[2024-01-01 00:00:00] earlier\n"), 0o644))

	j, err := OpenJournal(path)
	require.NoError(t, err)
	ts := time.Date(2024, 3, 14, 9, 26, 53, 500, time.Local)
	require.NoError(t, j.Append(ts, "Key a down"))
	require.NoError(t, j.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[2024-01-01 00:00:00] earlier\n[2024-03-14 09:26:53] Key a down\n", string(data))
}

func TestJournalAppendFailsOnDirectory(t *testing.T) {
	dir := t.TempDir()

	j, err := OpenJournal(dir)
	require.Error(t, err)
	require.NotNil(t, j)
	require.Error(t, j.Append(time.Now(), "Key a down"))
	require.NoError(t, j.Close())
}

func TestFormatKeyLine(t *testing.T) {
	require.Equal(t, "Key space down", FormatKeyLine(Event{Name: "space", Type: KeyDown}))
	require.Equal(t, "Key unknown up", FormatKeyLine(Event{Type: KeyUp}))
}
