package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
)

type GameArchiveMeta struct {
	VillageID string `json:"village_id"`
	Outcome   string `json:"outcome"`
	Days      int    `json:"days"`
	Buildings int    `json:"buildings"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
}

// ArchiveFinishedGame copies the snapshot of a finished game into
// `villageDir/archives/<outcome>_day<NNNNNNNN>/` next to a meta.json.
// Snapshots of running games are left alone (archived=false).
func ArchiveFinishedGame(villageDir, snapshotPath string, snap snapshot.SnapshotV1) (archivedPath string, archived bool, err error) {
	if !snap.GameOver || snap.Outcome == "" {
		return "", false, nil
	}
	archiveDir := filepath.Join(villageDir, "archives", fmt.Sprintf("%s_day%08d", snap.Outcome, snap.DaysGone))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta := GameArchiveMeta{
		VillageID: snap.Header.VillageID,
		Outcome:   snap.Outcome,
		Days:      snap.DaysGone,
		Buildings: len(snap.Buildings),
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}
	return dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
