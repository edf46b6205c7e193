package telemetry

import (
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

// DayStats is one row of days.csv.
type DayStats struct {
	VillageID string `csv:"village_id"`
	Day       int    `csv:"day"`

	Food  int `csv:"food"`
	Wood  int `csv:"wood"`
	Metal int `csv:"metal"`

	FoodPerDay  int `csv:"food_per_day"`
	WoodPerDay  int `csv:"wood_per_day"`
	MetalPerDay int `csv:"metal_per_day"`

	ProducedFood  int `csv:"produced_food"`
	ProducedWood  int `csv:"produced_wood"`
	ProducedMetal int `csv:"produced_metal"`
	Consumed      int `csv:"consumed"`

	Workers   int `csv:"workers"`
	Hungry    int `csv:"hungry"`
	Deaths    int `csv:"deaths"`
	Projects  int `csv:"projects"`
	Buildings int `csv:"buildings"`
	Progress  int `csv:"progress"`

	Commands int    `csv:"commands"`
	Rejected int    `csv:"rejected"`
	GameOver bool   `csv:"game_over"`
	Outcome  string `csv:"outcome"`
}

// Milestone is one row of milestones.csv: a death, a completed building or
// the end of the game.
type Milestone struct {
	VillageID string `csv:"village_id"`
	Day       int    `csv:"day"`
	Kind      string `csv:"kind"`
	Subject   string `csv:"subject"`
}

const (
	MilestoneDeath    = "death"
	MilestoneBuilding = "building"
	MilestoneGameOver = "game_over"
)

// StatsFromEntry flattens a day log entry into a CSV row.
func StatsFromEntry(e village.DayLogEntry) DayStats {
	rejected := 0
	for _, c := range e.Commands {
		if !c.Accepted {
			rejected++
		}
	}
	r := e.Report
	return DayStats{
		VillageID:     e.VillageID,
		Day:           e.Day,
		Food:          e.Stocks.Food,
		Wood:          e.Stocks.Wood,
		Metal:         e.Stocks.Metal,
		FoodPerDay:    e.Stocks.FoodPerDay,
		WoodPerDay:    e.Stocks.WoodPerDay,
		MetalPerDay:   e.Stocks.MetalPerDay,
		ProducedFood:  r.Produced.Food,
		ProducedWood:  r.Produced.Wood,
		ProducedMetal: r.Produced.Metal,
		Consumed:      r.Consumed,
		Workers:       e.Workers,
		Hungry:        r.Hungry,
		Deaths:        len(r.Deaths),
		Projects:      e.Projects,
		Buildings:     e.Buildings,
		Progress:      r.Progress,
		Commands:      len(e.Commands),
		Rejected:      rejected,
		GameOver:      r.GameOver,
		Outcome:       string(r.Outcome),
	}
}

// MilestonesFromEntry lists the notable events of one day in order.
func MilestonesFromEntry(e village.DayLogEntry) []Milestone {
	var out []Milestone
	for _, name := range e.Report.Deaths {
		out = append(out, Milestone{VillageID: e.VillageID, Day: e.Day, Kind: MilestoneDeath, Subject: name})
	}
	for _, name := range e.Report.Completed {
		out = append(out, Milestone{VillageID: e.VillageID, Day: e.Day, Kind: MilestoneBuilding, Subject: name})
	}
	if e.Report.GameOver {
		out = append(out, Milestone{VillageID: e.VillageID, Day: e.Day, Kind: MilestoneGameOver, Subject: string(e.Report.Outcome)})
	}
	return out
}
