package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
)

func writeDummy(t *testing.T, villageDir string) string {
	t.Helper()
	src := filepath.Join(villageDir, "snapshots", snapshot.FileName(50))
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("dummy"), 0o644))
	return src
}

func TestArchiveFinishedGameCopiesSnapshot(t *testing.T) {
	villageDir := filepath.Join(t.TempDir(), "villages", "v1")
	src := writeDummy(t, villageDir)

	snap := snapshot.SnapshotV1{
		Header:    snapshot.Header{Version: snapshot.Version, VillageID: "v1", Day: 50},
		DaysGone:  50,
		GameOver:  true,
		Outcome:   "victory",
		Buildings: []snapshot.BuildingV1{{Name: "Castle", CompletedDay: 49}},
	}
	dst, ok, err := ArchiveFinishedGame(villageDir, src, snap)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(villageDir, "archives", "victory_day00000050", snapshot.FileName(50)), dst)

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "dummy", string(got))

	raw, err := os.ReadFile(filepath.Join(filepath.Dir(dst), "meta.json"))
	require.NoError(t, err)
	var meta GameArchiveMeta
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.Equal(t, "v1", meta.VillageID)
	assert.Equal(t, "victory", meta.Outcome)
	assert.Equal(t, 50, meta.Days)
	assert.Equal(t, 1, meta.Buildings)
}

func TestArchiveFinishedGameSkipsRunningGame(t *testing.T) {
	villageDir := t.TempDir()
	src := writeDummy(t, villageDir)

	_, ok, err := ArchiveFinishedGame(villageDir, src, snapshot.SnapshotV1{DaysGone: 50})
	require.NoError(t, err)
	assert.False(t, ok)
	_, statErr := os.Stat(filepath.Join(villageDir, "archives"))
	assert.True(t, os.IsNotExist(statErr))
}
