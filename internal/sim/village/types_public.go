package village

import "github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/production"

// Outcome records why a game ended.
type Outcome string

const (
	OutcomeNone       Outcome = ""
	OutcomeExtinction Outcome = "extinction"
	OutcomeVictory    Outcome = "victory"
)

// DayReport describes what one call to Day did.
type DayReport struct {
	// Day is the index of the simulated day (DaysGone before the advance).
	Day     int  `json:"day"`
	Skipped bool `json:"skipped,omitempty"`

	Produced production.Output `json:"produced"`
	Consumed int               `json:"consumed"`
	Fed      int               `json:"fed"`
	Hungry   int               `json:"hungry"`

	Deaths    []string `json:"deaths,omitempty"`
	Progress  int      `json:"progress"`
	Completed []string `json:"completed,omitempty"`

	GameOver bool    `json:"game_over"`
	Outcome  Outcome `json:"outcome,omitempty"`
}

const (
	OpAddWorker  = "add_worker"
	OpAddProject = "add_project"
)

// Command is a recorded AddWorker/AddProject call between two days.
type Command struct {
	Op         string `json:"op"`
	Name       string `json:"name"`
	Occupation string `json:"occupation,omitempty"`
	Accepted   bool   `json:"accepted"`
}

// DayLogEntry is emitted once per simulated day; it carries enough to replay
// the day from the previous state.
type DayLogEntry struct {
	VillageID string    `json:"village_id"`
	Day       int       `json:"day"`
	Commands  []Command `json:"commands,omitempty"`
	Report    DayReport `json:"report"`
	Stocks    Ledger    `json:"stocks"`
	Workers   int       `json:"workers"`
	Projects  int       `json:"projects"`
	Buildings int       `json:"buildings"`
	Digest    string    `json:"digest"`
}

type DayLogger interface {
	WriteDay(entry DayLogEntry) error
}
