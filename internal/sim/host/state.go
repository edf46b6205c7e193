package host

import "github.com/KungSimon/VillageOfTesting/internal/sim/village"

// State is a read-only copy of the village taken on the host goroutine.
type State struct {
	VillageID  string             `json:"village_id"`
	Day        int                `json:"day"`
	GameOver   bool               `json:"game_over"`
	Outcome    village.Outcome    `json:"outcome,omitempty"`
	Stocks     village.Ledger     `json:"stocks"`
	MaxWorkers int                `json:"max_workers"`
	Workers    []village.Worker   `json:"workers"`
	Projects   []village.Project  `json:"projects"`
	Buildings  []village.Building `json:"buildings"`
	Digest     string             `json:"digest"`
}

func StateOf(v *village.Village) State {
	return State{
		VillageID:  v.ID(),
		Day:        v.DaysGone(),
		GameOver:   v.GameOver(),
		Outcome:    v.Outcome(),
		Stocks:     v.Ledger(),
		MaxWorkers: v.MaxWorkers(),
		Workers:    v.Workers(),
		Projects:   v.Projects(),
		Buildings:  v.Buildings(),
		Digest:     v.StateDigest(),
	}
}
