package replay

import (
	"path/filepath"
	"strings"
	"testing"

	persistlog "github.com/KungSimon/VillageOfTesting/internal/persistence/log"
	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
	"github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

// record plays a short game into dir and returns the snapshot taken at day 3.
func record(t *testing.T, dir string) (string, *village.Village) {
	t.Helper()
	dl := persistlog.NewDayLogger(dir)
	v, err := village.New(village.Config{ID: "v1", DayLogger: dl}, catalogs.Default())
	if err != nil {
		t.Fatalf("village: %v", err)
	}
	v.AddWorker("Bob", "farmer")
	v.AddWorker("Ann", "lumberjack")
	v.AddWorker("Eve", "wizard")
	v.SetStocks(10, 5, 0)
	v.AddProject("House")
	v.Day()
	v.Day()
	v.Day()

	snapPath := filepath.Join(dir, snapshot.FileName(v.DaysGone()))
	if err := snapshot.WriteSnapshot(snapPath, v.ExportSnapshot()); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	v.AddWorker("Cid", "builder")
	for i := 0; i < 5; i++ {
		v.Day()
	}
	if err := dl.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return snapPath, v
}

func restore(t *testing.T, path string) *village.Village {
	t.Helper()
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	v, err := village.FromSnapshot(village.Config{}, catalogs.Default(), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	return v
}

func TestVerifyFromSnapshot(t *testing.T) {
	dir := t.TempDir()
	snapPath, orig := record(t, dir)

	v := restore(t, snapPath)
	checked, err := Verify(v, persistlog.DayDir(dir), -1)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if checked != 5 {
		t.Fatalf("checked=%d want 5", checked)
	}
	if v.StateDigest() != orig.StateDigest() {
		t.Fatalf("final digest mismatch")
	}
}

func TestVerifyToDay(t *testing.T) {
	dir := t.TempDir()
	snapPath, _ := record(t, dir)

	v := restore(t, snapPath)
	checked, err := Verify(v, persistlog.DayDir(dir), 4)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if checked != 2 || v.DaysGone() != 5 {
		t.Fatalf("checked=%d day=%d", checked, v.DaysGone())
	}
}

func TestVerifyDetectsDivergence(t *testing.T) {
	dir := t.TempDir()
	record(t, dir)

	// Stocks were preset outside the log, so a fresh village cannot afford
	// the logged House.
	v, err := village.New(village.Config{ID: "v1"}, catalogs.Default())
	if err != nil {
		t.Fatalf("village: %v", err)
	}
	_, err = Verify(v, persistlog.DayDir(dir), -1)
	if err == nil || !strings.Contains(err.Error(), "day 0") {
		t.Fatalf("expected a day 0 divergence, got %v", err)
	}
}
