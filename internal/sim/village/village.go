package village

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"
	"github.com/KungSimon/VillageOfTesting/internal/sim/tuning"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/construction"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/production"
)

type Config struct {
	ID string

	// Tuning defaults to tuning.Defaults() when nil.
	Tuning *tuning.Tuning

	Logger    *slog.Logger
	DayLogger DayLogger
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "village_1"
	}
	if c.Tuning == nil {
		t := tuning.Defaults()
		c.Tuning = &t
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// Village owns every worker, project and building plus the ledger. It is not
// safe for concurrent use; all mutation goes through its methods.
type Village struct {
	id   string
	cats *catalogs.Catalogs
	tune tuning.Tuning

	ration RationPolicy
	build  construction.Rule
	yields map[Occupation]production.Output

	workers   []Worker
	projects  []Project
	buildings []Building
	ledger    Ledger

	maxWorkers int
	daysGone   int
	gameOver   bool
	outcome    Outcome
	hadWorkers bool

	// Commands applied since the last day, flushed into the day log.
	pending []Command

	log       *slog.Logger
	dayLogger DayLogger
}

func New(cfg Config, cats *catalogs.Catalogs) (*Village, error) {
	if cats == nil {
		return nil, errors.New("village: nil catalogs")
	}
	cfg.applyDefaults()
	v, err := newVillage(cfg, cats)
	if err != nil {
		return nil, err
	}
	t := cfg.Tuning
	v.ledger.Food = t.Start.Food
	v.ledger.Wood = t.Start.Wood
	v.ledger.Metal = t.Start.Metal
	v.maxWorkers = t.MaxWorkers
	for _, id := range t.StartingBuildings {
		def, ok := cats.Project(id)
		if !ok {
			return nil, fmt.Errorf("village: starting building %q: %w", id, ErrUnknownProject)
		}
		v.complete(def)
	}
	return v, nil
}

func newVillage(cfg Config, cats *catalogs.Catalogs) (*Village, error) {
	t := *cfg.Tuning
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("village: tuning: %w", err)
	}
	ration, err := rationPolicyFor(t.Food.Policy)
	if err != nil {
		return nil, fmt.Errorf("village: %w", err)
	}
	yields := make(map[Occupation]production.Output, len(t.Yields))
	for name, y := range t.Yields {
		occ, err := ParseOccupation(name)
		if err != nil {
			return nil, fmt.Errorf("village: yields: %w", err)
		}
		yields[occ] = production.Output{Food: y.Food, Wood: y.Wood, Metal: y.Metal}
	}
	return &Village{
		id:        cfg.ID,
		cats:      cats,
		tune:      t,
		ration:    ration,
		build:     construction.Rule{RequireBuilder: t.Construction.RequireBuilder, BuilderBonus: t.Construction.BuilderBonus},
		yields:    yields,
		log:       cfg.Logger.With("village", cfg.ID),
		dayLogger: cfg.DayLogger,
	}, nil
}

// AddWorker appends a worker when there is room. Over-capacity or unknown
// occupations are silently ignored; the return value only reports the outcome.
func (v *Village) AddWorker(name, occupation string) bool {
	return v.Admit(name, occupation) == nil
}

// Admit is AddWorker with the rejection reason.
func (v *Village) Admit(name, occupation string) error {
	if v.gameOver {
		return ErrGameOver
	}
	err := v.admit(name, occupation)
	v.record(Command{Op: OpAddWorker, Name: name, Occupation: occupation, Accepted: err == nil})
	if err != nil {
		v.log.Debug("worker rejected", "name", name, "occupation", occupation, "err", err)
	}
	return err
}

func (v *Village) admit(name, occupation string) error {
	occ, err := ParseOccupation(occupation)
	if err != nil {
		return err
	}
	if len(v.workers) >= v.maxWorkers {
		return ErrRosterFull
	}
	v.workers = append(v.workers, newWorker(name, occ))
	v.hadWorkers = true
	return nil
}

// AddProject starts a project when both costs are covered, paying them up
// front. Unknown names and unaffordable projects are silently ignored.
func (v *Village) AddProject(name string) bool {
	return v.Commission(name) == nil
}

// Commission is AddProject with the rejection reason.
func (v *Village) Commission(name string) error {
	if v.gameOver {
		return ErrGameOver
	}
	err := v.commission(name)
	v.record(Command{Op: OpAddProject, Name: name, Accepted: err == nil})
	if err != nil {
		v.log.Debug("project rejected", "name", name, "err", err)
	}
	return err
}

func (v *Village) commission(name string) error {
	def, ok := v.cats.Project(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProject, name)
	}
	if !v.ledger.spend(def.WoodCost, def.MetalCost) {
		return ErrInsufficientResources
	}
	v.projects = append(v.projects, newProject(def, v.daysGone))
	return nil
}

func (v *Village) record(c Command) {
	v.pending = append(v.pending, c)
}

// complete turns a definition into a building and folds in its effect.
func (v *Village) complete(def catalogs.ProjectDef) {
	v.buildings = append(v.buildings, newBuilding(def, v.daysGone))
	v.ledger.apply(def.Effect)
	v.maxWorkers += nonNegative(def.Effect.MaxWorkers)
}

// SetStocks presets food, wood and metal, clamping at zero.
func (v *Village) SetStocks(food, wood, metal int) {
	v.ledger.Food = nonNegative(food)
	v.ledger.Wood = nonNegative(wood)
	v.ledger.Metal = nonNegative(metal)
}

func (v *Village) SetDayLogger(l DayLogger) { v.dayLogger = l }

func (v *Village) ID() string                   { return v.id }
func (v *Village) Catalogs() *catalogs.Catalogs { return v.cats }
func (v *Village) Tuning() tuning.Tuning        { return v.tune }

func (v *Village) Workers() []Worker     { return append([]Worker(nil), v.workers...) }
func (v *Village) Projects() []Project   { return append([]Project(nil), v.projects...) }
func (v *Village) Buildings() []Building { return append([]Building(nil), v.buildings...) }

func (v *Village) Ledger() Ledger   { return v.ledger }
func (v *Village) Food() int        { return v.ledger.Food }
func (v *Village) Wood() int        { return v.ledger.Wood }
func (v *Village) Metal() int       { return v.ledger.Metal }
func (v *Village) WoodPerDay() int  { return v.ledger.WoodPerDay }
func (v *Village) MetalPerDay() int { return v.ledger.MetalPerDay }
func (v *Village) FoodPerDay() int  { return v.ledger.FoodPerDay }

func (v *Village) MaxWorkers() int  { return v.maxWorkers }
func (v *Village) DaysGone() int    { return v.daysGone }
func (v *Village) GameOver() bool   { return v.gameOver }
func (v *Village) Outcome() Outcome { return v.outcome }

// StarvationDays is how many foodless days a worker survives.
func (v *Village) StarvationDays() int { return v.tune.StarvationDays }
