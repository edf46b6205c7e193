package indexdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
	"github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"
	"github.com/KungSimon/VillageOfTesting/internal/sim/tuning"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

// SQLiteIndex is a queryable secondary index of day logs and snapshots.
// Writes are queued and applied by a single goroutine; the compressed day
// log stays the source of truth.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropDay      atomic.Uint64
	dropSnapshot atomic.Uint64
}

type reqKind int

const (
	reqDay reqKind = iota + 1
	reqSnapshot
)

type req struct {
	kind reqKind

	day      village.DayLogEntry
	snapshot snapshotRow
}

type snapshotRow struct {
	VillageID string
	Day       int
	Path      string
	Workers   int
	Projects  int
	Buildings int
	GameOver  bool
	Outcome   string
}

type Stats struct {
	QueueDepth        int
	QueueCapacity     int
	DropDayTotal      uint64
	DropSnapshotTotal uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 16384),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS days (
			village_id TEXT NOT NULL,
			day INTEGER NOT NULL,
			digest TEXT NOT NULL,
			food INTEGER NOT NULL,
			wood INTEGER NOT NULL,
			metal INTEGER NOT NULL,
			workers INTEGER NOT NULL,
			projects INTEGER NOT NULL,
			buildings INTEGER NOT NULL,
			deaths TEXT NOT NULL,
			completed TEXT NOT NULL,
			game_over INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			raw_json TEXT NOT NULL,
			PRIMARY KEY (village_id, day)
		);`,
		`CREATE TABLE IF NOT EXISTS commands (
			village_id TEXT NOT NULL,
			day INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			op TEXT NOT NULL,
			name TEXT NOT NULL,
			occupation TEXT NOT NULL,
			accepted INTEGER NOT NULL,
			PRIMARY KEY (village_id, day, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_commands_op ON commands(op, accepted);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			village_id TEXT NOT NULL,
			day INTEGER NOT NULL,
			path TEXT NOT NULL,
			workers INTEGER NOT NULL,
			projects INTEGER NOT NULL,
			buildings INTEGER NOT NULL,
			game_over INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			PRIMARY KEY (village_id, day)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Close drains the queue and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() Stats {
	if s == nil {
		return Stats{}
	}
	return Stats{
		QueueDepth:        len(s.ch),
		QueueCapacity:     cap(s.ch),
		DropDayTotal:      s.dropDay.Load(),
		DropSnapshotTotal: s.dropSnapshot.Load(),
	}
}

// WriteDay queues a day log entry. It never blocks; entries are dropped
// when the writer falls behind.
func (s *SQLiteIndex) WriteDay(entry village.DayLogEntry) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	select {
	case s.ch <- req{kind: reqDay, day: entry}:
	default:
		s.dropDay.Add(1)
	}
	return nil
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.SnapshotV1) {
	if s == nil || s.closed.Load() {
		return
	}
	r := snapshotRow{
		VillageID: snap.Header.VillageID,
		Day:       snap.Header.Day,
		Path:      path,
		Workers:   len(snap.Workers),
		Projects:  len(snap.Projects),
		Buildings: len(snap.Buildings),
		GameOver:  snap.GameOver,
		Outcome:   snap.Outcome,
	}
	select {
	case s.ch <- req{kind: reqSnapshot, snapshot: r}:
	default:
		s.dropSnapshot.Add(1)
	}
}

// UpsertCatalogs stores the project catalog and the applied tuning.
func (s *SQLiteIndex) UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if cats != nil {
		rows = append(rows, kv{name: "projects", digest: cats.Projects.Digest, json: cats.CanonicalJSON()})
	}
	if b, err := json.Marshal(tune); err == nil {
		rows = append(rows, kv{name: "tuning", digest: tune.Digest(), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertDay, _ := s.db.Prepare(`INSERT OR REPLACE INTO days(village_id,day,digest,food,wood,metal,workers,projects,buildings,deaths,completed,game_over,outcome,raw_json) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertCommand, _ := s.db.Prepare(`INSERT OR REPLACE INTO commands(village_id,day,seq,op,name,occupation,accepted) VALUES(?,?,?,?,?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(village_id,day,path,workers,projects,buildings,game_over,outcome) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertDay, insertCommand, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqDay:
			d := r.day
			raw, _ := json.Marshal(d)
			if insertDay != nil {
				if _, err := tx.Stmt(insertDay).Exec(
					d.VillageID,
					d.Day,
					d.Digest,
					d.Stocks.Food,
					d.Stocks.Wood,
					d.Stocks.Metal,
					d.Workers,
					d.Projects,
					d.Buildings,
					strings.Join(d.Report.Deaths, ","),
					strings.Join(d.Report.Completed, ","),
					boolInt(d.Report.GameOver),
					string(d.Report.Outcome),
					string(raw),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			for i, c := range d.Commands {
				if insertCommand == nil {
					break
				}
				if _, err := tx.Stmt(insertCommand).Exec(d.VillageID, d.Day, i, c.Op, c.Name, c.Occupation, boolInt(c.Accepted)); err != nil {
					rollback()
					break
				}
				opCount++
			}

		case reqSnapshot:
			sn := r.snapshot
			if insertSnapshot != nil {
				if _, err := tx.Stmt(insertSnapshot).Exec(
					sn.VillageID,
					sn.Day,
					sn.Path,
					sn.Workers,
					sn.Projects,
					sn.Buildings,
					boolInt(sn.GameOver),
					sn.Outcome,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
