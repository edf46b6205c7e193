package host

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
	"github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

func startHost(t *testing.T, cfg Config) (*Host, context.CancelFunc) {
	t.Helper()
	v, err := village.New(village.Config{ID: "v1"}, catalogs.Default())
	if err != nil {
		t.Fatalf("village: %v", err)
	}
	h := New(v, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h, cancel
}

func TestHostAppliesCommandsInOrder(t *testing.T) {
	h, _ := startHost(t, Config{})
	ctx := context.Background()

	res, err := h.Submit(ctx, Command{Op: OpAddWorker, Name: "Bob", Occupation: "farmer"})
	if err != nil || !res.Accepted {
		t.Fatalf("add worker: res=%+v err=%v", res, err)
	}
	res, err = h.Submit(ctx, Command{Op: OpAddWorker, Name: "Eve", Occupation: "wizard"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Accepted || !errors.Is(res.Err, village.ErrUnknownOccupation) {
		t.Fatalf("wizard: res=%+v", res)
	}
	res, _ = h.Submit(ctx, Command{Op: OpAddProject, Name: "House"})
	if res.Accepted || !errors.Is(res.Err, village.ErrInsufficientResources) {
		t.Fatalf("house: res=%+v", res)
	}

	res, err = h.Submit(ctx, Command{Op: OpDay, Days: 3})
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if len(res.Reports) != 3 || res.State.Day != 3 {
		t.Fatalf("reports=%d day=%d", len(res.Reports), res.State.Day)
	}
	if len(res.State.Workers) != 1 || res.State.Workers[0].Name != "Bob" {
		t.Fatalf("workers=%+v", res.State.Workers)
	}

	res, _ = h.Submit(ctx, Command{Op: "dance"})
	if !errors.Is(res.Err, ErrBadOp) {
		t.Fatalf("bad op err=%v", res.Err)
	}
}

func TestHostDayStopsAtGameOver(t *testing.T) {
	h, _ := startHost(t, Config{})
	ctx := context.Background()

	h.Submit(ctx, Command{Op: OpAddWorker, Name: "Bob", Occupation: "miner"})
	res, _ := h.Submit(ctx, Command{Op: OpDay, Days: 1000})
	if !res.State.GameOver {
		t.Fatalf("expected game over, state=%+v", res.State)
	}
	// 10 food lasts 10 days, then 6 hungry days kill the miner.
	if len(res.Reports) != 16 {
		t.Fatalf("reports=%d want 16", len(res.Reports))
	}
	res, _ = h.Submit(ctx, Command{Op: OpDay})
	if !errors.Is(res.Err, village.ErrGameOver) || len(res.Reports) != 0 || res.State.Day != 16 {
		t.Fatalf("after game over: reports=%d day=%d", len(res.Reports), res.State.Day)
	}
	res, _ = h.Submit(ctx, Command{Op: OpAddWorker, Name: "Ann", Occupation: "farmer"})
	if !errors.Is(res.Err, village.ErrGameOver) {
		t.Fatalf("add after game over err=%v", res.Err)
	}
}

func TestHostClockAdvancesAndBroadcasts(t *testing.T) {
	h, _ := startHost(t, Config{DayInterval: 5 * time.Millisecond})
	id, ch := h.Subscribe()
	defer h.Unsubscribe(id)

	select {
	case st := <-ch:
		if st.Day < 1 || st.VillageID != "v1" {
			t.Fatalf("state=%+v", st)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no state broadcast")
	}
}

func TestHostSnapshots(t *testing.T) {
	dir := t.TempDir()
	var recorded []string
	h, _ := startHost(t, Config{
		SnapshotDir:   dir,
		SnapshotEvery: 2,
		OnSnapshot:    func(path string, _ snapshot.SnapshotV1) { recorded = append(recorded, path) },
	})
	ctx := context.Background()

	h.Submit(ctx, Command{Op: OpAddWorker, Name: "Bob", Occupation: "farmer"})
	h.Submit(ctx, Command{Op: OpDay, Days: 4})

	path, err := h.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if snap.Header.Day != 4 || len(snap.Workers) != 1 {
		t.Fatalf("snapshot day=%d workers=%d", snap.Header.Day, len(snap.Workers))
	}

	st, _ := h.Submit(ctx, Command{Op: OpState})
	if len(recorded) != 3 {
		t.Fatalf("recorded=%v", recorded)
	}
	ents, _ := os.ReadDir(dir)
	if len(ents) != 2 {
		t.Fatalf("files=%d want 2", len(ents))
	}

	v, err := village.FromSnapshot(village.Config{}, catalogs.Default(), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if v.StateDigest() != st.State.Digest {
		t.Fatalf("restored digest mismatch")
	}
}

func TestHostSnapshotsAtGameOver(t *testing.T) {
	dir := t.TempDir()
	var final []snapshot.SnapshotV1
	h, _ := startHost(t, Config{
		SnapshotDir: dir,
		OnSnapshot:  func(_ string, snap snapshot.SnapshotV1) { final = append(final, snap) },
	})
	ctx := context.Background()

	h.Submit(ctx, Command{Op: OpAddWorker, Name: "Bob", Occupation: "builder"})
	res, err := h.Submit(ctx, Command{Op: OpDay, Days: 100})
	if err != nil {
		t.Fatalf("day: %v", err)
	}
	if !res.State.GameOver || len(res.Reports) >= 100 {
		t.Fatalf("game over=%v after %d days", res.State.GameOver, len(res.Reports))
	}
	if len(final) != 1 || !final[0].GameOver || final[0].Outcome != string(village.OutcomeExtinction) {
		t.Fatalf("snapshots=%+v", final)
	}
}

func TestHostSnapshotWithoutDir(t *testing.T) {
	var buf bytes.Buffer
	h, _ := startHost(t, Config{
		SnapshotEvery: 2,
		Logger:        log.New(&buf, "", 0),
	})
	ctx := context.Background()
	h.Submit(ctx, Command{Op: OpAddWorker, Name: "Bob", Occupation: "farmer"})
	if _, err := h.Submit(ctx, Command{Op: OpDay, Days: 6}); err != nil {
		t.Fatalf("day: %v", err)
	}
	if strings.Contains(buf.String(), "snapshot") {
		t.Fatalf("periodic snapshot attempted without a directory: %q", buf.String())
	}
	if _, err := h.Snapshot(ctx); !errors.Is(err, ErrNoSnapDir) {
		t.Fatalf("err=%v", err)
	}
}

func TestHostSubmitAfterStop(t *testing.T) {
	h, cancel := startHost(t, Config{})
	cancel()
	<-h.stopped
	if _, err := h.Submit(context.Background(), Command{Op: OpState}); !errors.Is(err, ErrStopped) {
		t.Fatalf("err=%v", err)
	}
}

type failingLog struct{ n int }

func (f *failingLog) WriteDay(village.DayLogEntry) error {
	f.n++
	return errors.New("boom")
}

func TestDayLoggersFanOut(t *testing.T) {
	a, b := &failingLog{}, &failingLog{}
	err := DayLoggers{a, nil, b}.WriteDay(village.DayLogEntry{})
	if err == nil || a.n != 1 || b.n != 1 {
		t.Fatalf("err=%v a=%d b=%d", err, a.n, b.n)
	}
}
