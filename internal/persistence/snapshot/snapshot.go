package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

var ErrVersion = errors.New("unsupported snapshot version")

type Header struct {
	Version   int    `json:"version"`
	VillageID string `json:"village_id"`
	Day       int    `json:"day"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	CatalogDigest string `json:"catalog_digest"`

	// Rules captured for deterministic replay/resume.
	Rules RulesV1 `json:"rules"`

	Ledger     LedgerV1 `json:"ledger"`
	MaxWorkers int      `json:"max_workers"`
	DaysGone   int      `json:"days_gone"`
	GameOver   bool     `json:"game_over"`
	Outcome    string   `json:"outcome,omitempty"`
	HadWorkers bool     `json:"had_workers"`

	Workers   []WorkerV1   `json:"workers"`
	Projects  []ProjectV1  `json:"projects"`
	Buildings []BuildingV1 `json:"buildings"`
}

type RulesV1 struct {
	StarvationDays int                `json:"starvation_days"`
	FoodPolicy     string             `json:"food_policy"`
	RequireBuilder bool               `json:"require_builder,omitempty"`
	BuilderBonus   int                `json:"builder_bonus,omitempty"`
	Yields         map[string]YieldV1 `json:"yields,omitempty"`

	// Starting conditions, restored so a resumed village keeps its tuning.
	Start             StocksV1 `json:"start"`
	BaseMaxWorkers    int      `json:"base_max_workers"`
	StartingBuildings []string `json:"starting_buildings,omitempty"`
}

type StocksV1 struct {
	Food  int `json:"food"`
	Wood  int `json:"wood"`
	Metal int `json:"metal"`
}

type YieldV1 struct {
	Food  int `json:"food,omitempty"`
	Wood  int `json:"wood,omitempty"`
	Metal int `json:"metal,omitempty"`
}

type LedgerV1 struct {
	Food        int `json:"food"`
	Wood        int `json:"wood"`
	Metal       int `json:"metal"`
	WoodPerDay  int `json:"wood_per_day"`
	MetalPerDay int `json:"metal_per_day"`
	FoodPerDay  int `json:"food_per_day"`
}

type WorkerV1 struct {
	Name       string `json:"name"`
	Occupation string `json:"occupation"`
	Alive      bool   `json:"alive"`
	DaysHungry int    `json:"days_hungry"`
}

type ProjectV1 struct {
	Name       string `json:"name"`
	DaysLeft   int    `json:"days_left"`
	BuildDays  int    `json:"build_days"`
	StartedDay int    `json:"started_day"`
}

type BuildingV1 struct {
	Name         string   `json:"name"`
	CompletedDay int      `json:"completed_day"`
	Effect       EffectV1 `json:"effect"`
}

type EffectV1 struct {
	WoodPerDay  int `json:"wood_per_day,omitempty"`
	MetalPerDay int `json:"metal_per_day,omitempty"`
	FoodPerDay  int `json:"food_per_day,omitempty"`
	MaxWorkers  int `json:"max_workers,omitempty"`
}

// FileName is the conventional name for a snapshot taken at day.
func FileName(day int) string {
	return fmt.Sprintf("%08d.snap.zst", day)
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// The gob body repeats the header; the line only serves ReadHeader.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("%w: %d", ErrVersion, snap.Header.Version)
	}
	return snap, nil
}
