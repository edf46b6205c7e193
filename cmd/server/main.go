package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/KungSimon/VillageOfTesting/internal/persistence/archive"
	"github.com/KungSimon/VillageOfTesting/internal/persistence/indexdb"
	persistlog "github.com/KungSimon/VillageOfTesting/internal/persistence/log"
	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
	"github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"
	"github.com/KungSimon/VillageOfTesting/internal/sim/host"
	"github.com/KungSimon/VillageOfTesting/internal/sim/tuning"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
	"github.com/KungSimon/VillageOfTesting/internal/telemetry"
	"github.com/KungSimon/VillageOfTesting/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		villageID  = flag.String("village", "village_1", "village id")
		configDir  = flag.String("configs", "./configs", "config directory (projects.json, tuning.yaml)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")
		csvDir     = flag.String("telemetry", "", "directory for CSV telemetry (empty to disable)")
		dayEvery   = flag.Duration("day_every", 0, "advance one day per interval (0: days advance only on DAY commands)")
		snapEvery  = flag.Int("snapshot_every", 10, "write a snapshot every N days (0 to disable)")
		debug      = flag.Bool("debug", false, "log village rejections, deaths and completions")

		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	villageDir := filepath.Join(*dataDir, "villages", *villageID)
	snapDir := filepath.Join(villageDir, "snapshots")
	_ = os.MkdirAll(villageDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(villageDir, "index", "village.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(cats, tune); err != nil {
			logger.Printf("index: upsert catalogs: %v", err)
		}
	}

	dayLog := persistlog.NewDayLogger(villageDir)
	defer dayLog.Close()

	csvOut, err := telemetry.NewOutputManager(*csvDir)
	if err != nil {
		logger.Fatalf("telemetry: %v", err)
	}
	defer csvOut.Close()
	if err := csvOut.WriteTuning(tune); err != nil {
		logger.Printf("telemetry: %v", err)
	}

	sinks := host.DayLoggers{dayLog}
	if idx != nil {
		sinks = append(sinks, idx)
	}
	if csvOut != nil {
		sinks = append(sinks, csvOut)
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	vcfg := village.Config{
		ID:        *villageID,
		Tuning:    &tune,
		Logger:    slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})),
		DayLogger: sinks,
	}

	snapshotToLoad := strings.TrimSpace(*snapPath)
	if snapshotToLoad == "" && *loadLatest {
		snapshotToLoad = latestSnapshot(snapDir)
	}

	var v *village.Village
	if snapshotToLoad != "" {
		snap, err := snapshot.ReadSnapshot(snapshotToLoad)
		if err != nil {
			logger.Fatalf("read snapshot: %v", err)
		}
		if snap.Header.VillageID != "" && snap.Header.VillageID != *villageID {
			logger.Fatalf("snapshot village id mismatch: flag=%s snap=%s", *villageID, snap.Header.VillageID)
		}
		if snap.CatalogDigest != cats.Projects.Digest {
			logger.Printf("snapshot catalog digest differs from loaded catalog; projects resolve by id")
		}
		v, err = village.FromSnapshot(vcfg, cats, snap)
		if err != nil {
			logger.Fatalf("resume: %v", err)
		}
		logger.Printf("resumed from snapshot=%s day=%d", filepath.Base(snapshotToLoad), v.DaysGone())
	} else {
		v, err = village.New(vcfg, cats)
		if err != nil {
			logger.Fatalf("village: %v", err)
		}
	}

	h := host.New(v, host.Config{
		DayInterval:   *dayEvery,
		SnapshotDir:   snapDir,
		SnapshotEvery: *snapEvery,
		OnSnapshot: func(path string, snap snapshot.SnapshotV1) {
			idx.RecordSnapshot(path, snap)
			if dst, ok, err := archive.ArchiveFinishedGame(villageDir, path, snap); err != nil {
				logger.Printf("archive: %v", err)
			} else if ok {
				logger.Printf("archived finished game outcome=%s path=%s", snap.Outcome, dst)
			}
		},
		Logger: log.New(os.Stdout, "[host] ", log.LstdFlags|log.Lmicroseconds),
	})
	wsSrv := ws.NewServer(h, logger)

	ctx, cancel := signalContext()
	defer cancel()

	hostDone := make(chan struct{})
	go func() {
		defer close(hostDone)
		if err := h.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("host stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", metricsHandler(h, idx))
	mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel2()
		res, err := h.Submit(ctx2, host.Command{Op: host.OpState})
		if err != nil {
			http.Error(rw, err.Error(), http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(res.State)
	})
	mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel2()
		path, err := h.Snapshot(ctx2)
		rw.Header().Set("Content-Type", "application/json")
		if err != nil {
			rw.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
			return
		}
		_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "path": path})
	})
	mux.HandleFunc("/v1/ws", wsSrv.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("village=%s day=%d listening on %s", *villageID, v.DaysGone(), *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	cancel()
	<-hostDone
	if path, err := h.FinalSnapshot(); err != nil {
		logger.Printf("final snapshot: %v", err)
	} else {
		idx.RecordSnapshot(path, v.ExportSnapshot())
		logger.Printf("final snapshot=%s", path)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
