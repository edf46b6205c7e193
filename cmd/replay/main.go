package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	persistlog "github.com/KungSimon/VillageOfTesting/internal/persistence/log"
	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
	"github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"
	"github.com/KungSimon/VillageOfTesting/internal/sim/replay"
	"github.com/KungSimon/VillageOfTesting/internal/sim/tuning"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst to start from (optional: fresh village when empty)")
		villageDir = flag.String("village_dir", "", "village data dir containing days/days-*.jsonl.zst")
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "tuning.yaml for a fresh start (default: embedded defaults)")
		villageID  = flag.String("village", "village_1", "village id for a fresh start")
		toDay      = flag.Int("to_day", -1, "stop after this day (inclusive, optional)")
	)
	flag.Parse()

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}

	v, err := startVillage(*snapPath, *tuningPath, *villageID, cats)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("start village=%s day=%d workers=%d projects=%d buildings=%d\n",
		v.ID(), v.DaysGone(), len(v.Workers()), len(v.Projects()), len(v.Buildings()))

	if *villageDir == "" {
		return
	}
	checked, err := replay.Verify(v, persistlog.DayDir(*villageDir), *toDay)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: checked=%d days end_day=%d game_over=%v\n", checked, v.DaysGone(), v.GameOver())
}

func startVillage(snapPath, tuningPath, id string, cats *catalogs.Catalogs) (*village.Village, error) {
	if snapPath != "" {
		snap, err := snapshot.ReadSnapshot(snapPath)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		if snap.CatalogDigest != cats.Projects.Digest {
			fmt.Fprintf(os.Stderr, "warning: catalog digest differs from %s\n", filepath.Base(snapPath))
		}
		return village.FromSnapshot(village.Config{}, cats, snap)
	}
	tune := tuning.Defaults()
	if tuningPath != "" {
		t, err := tuning.Load(tuningPath)
		if err != nil {
			return nil, fmt.Errorf("load tuning: %w", err)
		}
		tune = t
	}
	return village.New(village.Config{ID: id, Tuning: &tune}, cats)
}
