package village

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KungSimon/VillageOfTesting/internal/persistence/snapshot"
	"github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"
	"github.com/KungSimon/VillageOfTesting/internal/sim/tuning"
)

// ExportSnapshot captures the full village state between two days.
func (v *Village) ExportSnapshot() snapshot.SnapshotV1 {
	l := v.ledger
	snap := snapshot.SnapshotV1{
		Header:        snapshot.Header{Version: snapshot.Version, VillageID: v.id, Day: v.daysGone},
		CatalogDigest: v.cats.Projects.Digest,
		Rules:         v.exportRules(),
		Ledger: snapshot.LedgerV1{
			Food: l.Food, Wood: l.Wood, Metal: l.Metal,
			WoodPerDay: l.WoodPerDay, MetalPerDay: l.MetalPerDay, FoodPerDay: l.FoodPerDay,
		},
		MaxWorkers: v.maxWorkers,
		DaysGone:   v.daysGone,
		GameOver:   v.gameOver,
		Outcome:    string(v.outcome),
		HadWorkers: v.hadWorkers,
		Workers:    make([]snapshot.WorkerV1, 0, len(v.workers)),
		Projects:   make([]snapshot.ProjectV1, 0, len(v.projects)),
		Buildings:  make([]snapshot.BuildingV1, 0, len(v.buildings)),
	}
	for _, w := range v.workers {
		snap.Workers = append(snap.Workers, snapshot.WorkerV1{
			Name: w.Name, Occupation: w.Occupation.String(), Alive: w.Alive, DaysHungry: w.DaysHungry,
		})
	}
	for _, p := range v.projects {
		snap.Projects = append(snap.Projects, snapshot.ProjectV1{
			Name: p.Name, DaysLeft: p.DaysLeft, BuildDays: p.BuildDays, StartedDay: p.StartedDay,
		})
	}
	for _, b := range v.buildings {
		e := b.Effect
		snap.Buildings = append(snap.Buildings, snapshot.BuildingV1{
			Name:         b.Name,
			CompletedDay: b.CompletedDay,
			Effect:       snapshot.EffectV1{WoodPerDay: e.WoodPerDay, MetalPerDay: e.MetalPerDay, FoodPerDay: e.FoodPerDay, MaxWorkers: e.MaxWorkers},
		})
	}
	return snap
}

func (v *Village) exportRules() snapshot.RulesV1 {
	r := snapshot.RulesV1{
		StarvationDays: v.tune.StarvationDays,
		FoodPolicy:     v.ration.Name(),
		RequireBuilder: v.build.RequireBuilder,
		BuilderBonus:   v.build.BuilderBonus,
		Yields:         map[string]snapshot.YieldV1{},

		Start:             snapshot.StocksV1{Food: v.tune.Start.Food, Wood: v.tune.Start.Wood, Metal: v.tune.Start.Metal},
		BaseMaxWorkers:    v.tune.MaxWorkers,
		StartingBuildings: append([]string(nil), v.tune.StartingBuildings...),
	}
	occs := make([]Occupation, 0, len(v.yields))
	for o := range v.yields {
		occs = append(occs, o)
	}
	sort.Slice(occs, func(i, j int) bool { return occs[i] < occs[j] })
	for _, o := range occs {
		y := v.yields[o]
		r.Yields[o.String()] = snapshot.YieldV1{Food: y.Food, Wood: y.Wood, Metal: y.Metal}
	}
	return r
}

// FromSnapshot rebuilds a village. Rules come from the snapshot, not from
// cfg.Tuning, so a resumed game keeps behaving as it did.
func FromSnapshot(cfg Config, cats *catalogs.Catalogs, snap snapshot.SnapshotV1) (*Village, error) {
	if cats == nil {
		return nil, errors.New("village: nil catalogs")
	}
	if snap.Header.Version != snapshot.Version {
		return nil, fmt.Errorf("village: %w: %d", snapshot.ErrVersion, snap.Header.Version)
	}
	if cfg.ID == "" {
		cfg.ID = snap.Header.VillageID
	}
	t := tuningFromRules(snap.Rules)
	cfg.Tuning = &t
	cfg.applyDefaults()

	v, err := newVillage(cfg, cats)
	if err != nil {
		return nil, err
	}

	l := snap.Ledger
	v.ledger = Ledger{
		Food: l.Food, Wood: l.Wood, Metal: l.Metal,
		WoodPerDay: l.WoodPerDay, MetalPerDay: l.MetalPerDay, FoodPerDay: l.FoodPerDay,
	}
	v.maxWorkers = snap.MaxWorkers
	v.daysGone = snap.DaysGone
	v.gameOver = snap.GameOver
	v.outcome = Outcome(snap.Outcome)
	v.hadWorkers = snap.HadWorkers

	for _, sw := range snap.Workers {
		occ, err := ParseOccupation(sw.Occupation)
		if err != nil {
			return nil, fmt.Errorf("village: snapshot worker %q: %w", sw.Name, err)
		}
		v.workers = append(v.workers, Worker{Name: sw.Name, Occupation: occ, Alive: sw.Alive, DaysHungry: sw.DaysHungry})
	}
	for _, sp := range snap.Projects {
		def, ok := cats.Project(sp.Name)
		if !ok {
			return nil, fmt.Errorf("village: snapshot project %q: %w", sp.Name, ErrUnknownProject)
		}
		v.projects = append(v.projects, Project{
			Name: sp.Name, DaysLeft: sp.DaysLeft, BuildDays: sp.BuildDays, StartedDay: sp.StartedDay, def: def,
		})
	}
	for _, sb := range snap.Buildings {
		e := sb.Effect
		v.buildings = append(v.buildings, Building{
			Name:         sb.Name,
			CompletedDay: sb.CompletedDay,
			Effect:       catalogs.Effect{WoodPerDay: e.WoodPerDay, MetalPerDay: e.MetalPerDay, FoodPerDay: e.FoodPerDay, MaxWorkers: e.MaxWorkers},
		})
	}
	return v, nil
}

func tuningFromRules(r snapshot.RulesV1) tuning.Tuning {
	t := tuning.Tuning{
		StarvationDays: r.StarvationDays,
		Food:           tuning.FoodRules{Policy: r.FoodPolicy},
		Construction:   tuning.ConstructionRules{RequireBuilder: r.RequireBuilder, BuilderBonus: r.BuilderBonus},
		Yields:         make(map[string]tuning.Yield, len(r.Yields)),

		Start:             tuning.Stocks{Food: r.Start.Food, Wood: r.Start.Wood, Metal: r.Start.Metal},
		MaxWorkers:        r.BaseMaxWorkers,
		StartingBuildings: append([]string(nil), r.StartingBuildings...),
	}
	if t.Food.Policy == "" {
		t.Food.Policy = tuning.FoodPolicyFlat
	}
	for occ, y := range r.Yields {
		t.Yields[occ] = tuning.Yield{Food: y.Food, Wood: y.Wood, Metal: y.Metal}
	}
	return t
}
