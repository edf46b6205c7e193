package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KungSimon/VillageOfTesting/internal/persistence/indexdb"
	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
	"github.com/KungSimon/VillageOfTesting/internal/sim/host"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

func TestLatestSnapshot(t *testing.T) {
	dir := t.TempDir()
	if got := latestSnapshot(dir); got != "" {
		t.Fatalf("empty dir: got %q", got)
	}
	for _, name := range []string{snapshot.FileName(2), snapshot.FileName(10), "junk.snap.zst", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if got, want := latestSnapshot(dir), filepath.Join(dir, snapshot.FileName(10)); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestIsLoopbackRemote(t *testing.T) {
	cases := map[string]bool{
		"127.0.0.1:5555": true,
		"[::1]:80":       true,
		"10.0.0.2:80":    false,
		"garbage":        false,
	}
	for addr, want := range cases {
		if got := isLoopbackRemote(addr); got != want {
			t.Fatalf("%s: got %v want %v", addr, got, want)
		}
	}
}

func TestWriteMetrics(t *testing.T) {
	var b strings.Builder
	st := host.State{
		VillageID: "v1",
		Day:       7,
		Stocks:    village.Ledger{Food: 3, WoodPerDay: 2},
		Workers:   make([]village.Worker, 2),
	}
	writeMetrics(&b, st, indexdb.Stats{QueueCapacity: 8, DropDayTotal: 1})
	out := b.String()
	for _, want := range []string{
		`village_day{village="v1"} 7`,
		`village_workers{village="v1"} 2`,
		`village_stock{village="v1",resource="food"} 3`,
		`village_rate{village="v1",resource="wood"} 2`,
		`village_index_dropped_total{kind="day"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
