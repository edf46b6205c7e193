package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/KungSimon/VillageOfTesting/internal/persistence/archive"
	persistlog "github.com/KungSimon/VillageOfTesting/internal/persistence/log"
	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
	"github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"
	"github.com/KungSimon/VillageOfTesting/internal/sim/host"
	"github.com/KungSimon/VillageOfTesting/internal/sim/tuning"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
	"github.com/KungSimon/VillageOfTesting/internal/telemetry"
)

const maxDays = 100000

type options struct {
	configDir  string
	tuningPath string
	villageID  string
	workers    string
	projects   string
	days       int
	food       int
	wood       int
	metal      int
	outDir     string
	verbose    bool
}

func main() {
	var o options
	flag.StringVar(&o.configDir, "configs", "./configs", "config directory")
	flag.StringVar(&o.tuningPath, "tuning", "", "path to tuning.yaml (default: embedded defaults)")
	flag.StringVar(&o.villageID, "village", "village_1", "village id")
	flag.StringVar(&o.workers, "workers", "", "comma-separated name:occupation list, e.g. Bob:farmer,Ann:builder")
	flag.StringVar(&o.projects, "projects", "", "comma-separated project ids started on day 0")
	flag.IntVar(&o.days, "days", 0, "days to simulate (0: until game over)")
	flag.IntVar(&o.food, "food", -1, "preset food (-1: tuning start value)")
	flag.IntVar(&o.wood, "wood", -1, "preset wood (-1: tuning start value)")
	flag.IntVar(&o.metal, "metal", -1, "preset metal (-1: tuning start value)")
	flag.StringVar(&o.outDir, "out", "", "write day log, CSV telemetry and day-0 and final snapshots here (optional)")
	flag.BoolVar(&o.verbose, "v", false, "print every day")
	flag.Parse()

	logger := log.New(os.Stderr, "[sim] ", log.LstdFlags|log.Lmicroseconds)
	v, err := run(o, logger, os.Stdout)
	if err != nil {
		logger.Fatal(err)
	}
	fmt.Println(summary(v))
}

// run plays one game. With an output directory it writes a snapshot after the
// stock preset and before any command, so the day log replays from day 0.
func run(o options, logger *log.Logger, out io.Writer) (*village.Village, error) {
	cats, err := catalogs.Load(o.configDir)
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	tune := tuning.Defaults()
	if o.tuningPath != "" {
		tune, err = tuning.Load(o.tuningPath)
		if err != nil {
			return nil, fmt.Errorf("load tuning: %w", err)
		}
	}
	roster, err := parseRoster(o.workers)
	if err != nil {
		return nil, fmt.Errorf("-workers: %w", err)
	}

	var sinks host.DayLoggers
	if o.outDir != "" {
		dl := persistlog.NewDayLogger(o.outDir)
		defer dl.Close()
		om, err := telemetry.NewOutputManager(filepath.Join(o.outDir, "telemetry"))
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		defer om.Close()
		if err := om.WriteTuning(tune); err != nil {
			logger.Printf("telemetry: %v", err)
		}
		sinks = append(sinks, dl, om)
	}

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	cfg := village.Config{
		ID:     o.villageID,
		Tuning: &tune,
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
	}
	if len(sinks) > 0 {
		cfg.DayLogger = sinks
	}
	v, err := village.New(cfg, cats)
	if err != nil {
		return nil, fmt.Errorf("village: %w", err)
	}
	presetStocks(v, o.food, o.wood, o.metal)
	if o.outDir != "" {
		if _, err := writeSnapshot(o.outDir, v); err != nil {
			return nil, fmt.Errorf("day 0 snapshot: %w", err)
		}
	}

	for _, w := range roster {
		if err := v.Admit(w.name, w.occupation); err != nil {
			logger.Printf("worker %s (%s) rejected: %v", w.name, w.occupation, err)
		}
	}
	for _, id := range splitList(o.projects) {
		if err := v.Commission(id); err != nil {
			logger.Printf("project %s rejected: %v", id, err)
		}
	}

	limit := o.days
	if limit <= 0 || limit > maxDays {
		limit = maxDays
	}
	for i := 0; i < limit && !v.GameOver(); i++ {
		rep := v.Day()
		if o.verbose {
			fmt.Fprintln(out, formatReport(rep, v))
		}
	}

	if o.outDir != "" {
		snap, err := writeSnapshot(o.outDir, v)
		if err != nil {
			return nil, fmt.Errorf("final snapshot: %w", err)
		}
		path := filepath.Join(o.outDir, "snapshots", snapshot.FileName(snap.Header.Day))
		if _, _, err := archive.ArchiveFinishedGame(o.outDir, path, snap); err != nil {
			logger.Printf("archive: %v", err)
		}
	}
	return v, nil
}

func writeSnapshot(outDir string, v *village.Village) (snapshot.SnapshotV1, error) {
	snap := v.ExportSnapshot()
	path := filepath.Join(outDir, "snapshots", snapshot.FileName(snap.Header.Day))
	return snap, snapshot.WriteSnapshot(path, snap)
}

type rosterEntry struct {
	name       string
	occupation string
}

func parseRoster(s string) ([]rosterEntry, error) {
	var out []rosterEntry
	for _, item := range splitList(s) {
		name, occ, ok := strings.Cut(item, ":")
		name, occ = strings.TrimSpace(name), strings.TrimSpace(occ)
		if !ok || name == "" || occ == "" {
			return nil, fmt.Errorf("bad entry %q (want name:occupation)", item)
		}
		out = append(out, rosterEntry{name: name, occupation: occ})
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func presetStocks(v *village.Village, food, wood, metal int) {
	l := v.Ledger()
	if food >= 0 {
		l.Food = food
	}
	if wood >= 0 {
		l.Wood = wood
	}
	if metal >= 0 {
		l.Metal = metal
	}
	v.SetStocks(l.Food, l.Wood, l.Metal)
}

func formatReport(rep village.DayReport, v *village.Village) string {
	var b strings.Builder
	fmt.Fprintf(&b, "day %4d  food=%d wood=%d metal=%d  workers=%d projects=%d",
		rep.Day, v.Food(), v.Wood(), v.Metal(), len(v.Workers()), len(v.Projects()))
	if rep.Hungry > 0 {
		fmt.Fprintf(&b, "  hungry=%d", rep.Hungry)
	}
	if len(rep.Deaths) > 0 {
		fmt.Fprintf(&b, "  died=%s", strings.Join(rep.Deaths, ","))
	}
	if len(rep.Completed) > 0 {
		fmt.Fprintf(&b, "  built=%s", strings.Join(rep.Completed, ","))
	}
	return b.String()
}

func summary(v *village.Village) string {
	names := make([]string, 0, len(v.Buildings()))
	for _, b := range v.Buildings() {
		names = append(names, b.Name)
	}
	outcome := string(v.Outcome())
	if outcome == "" {
		outcome = "running"
	}
	return fmt.Sprintf("village=%s days=%d outcome=%s workers=%d food=%d wood=%d metal=%d buildings=[%s] digest=%s",
		v.ID(), v.DaysGone(), outcome, len(v.Workers()), v.Food(), v.Wood(), v.Metal(),
		strings.Join(names, ","), v.StateDigest())
}
