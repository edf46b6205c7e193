package protocol

import "github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/production"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	// Subscribe asks for a STATE push after every day.
	Subscribe bool `json:"subscribe,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	VillageID       string         `json:"village_id"`
	Occupations     []string       `json:"occupations"`
	Projects        []ProjectInfo  `json:"projects"`
	Catalogs        CatalogDigests `json:"catalogs"`
	Rules           RuleSummary    `json:"rules"`
}

type ProjectInfo struct {
	ID        string `json:"id"`
	WoodCost  int    `json:"wood_cost"`
	MetalCost int    `json:"metal_cost"`
	BuildDays int    `json:"build_days"`
	EndsGame  bool   `json:"ends_game,omitempty"`
}

type CatalogDigests struct {
	ProjectsDigest string `json:"projects_digest"`
	TuningDigest   string `json:"tuning_digest"`
}

type RuleSummary struct {
	StarvationDays int    `json:"starvation_days"`
	FoodPolicy     string `json:"food_policy"`
	RequireBuilder bool   `json:"require_builder"`
}

// CMD (client -> server)
type CmdMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	CmdID           string `json:"cmd_id"`
	Op              string `json:"op"`
	Name            string `json:"name,omitempty"`
	Occupation      string `json:"occupation,omitempty"`
	Days            int    `json:"days,omitempty"`
}

// ACK (server -> client), one per CMD.
type AckMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	CmdID           string       `json:"cmd_id,omitempty"`
	Accepted        bool         `json:"accepted"`
	Code            string       `json:"code,omitempty"`
	Message         string       `json:"message,omitempty"`
	Days            []DaySummary `json:"days,omitempty"`
}

type DaySummary struct {
	Day       int               `json:"day"`
	Produced  production.Output `json:"produced"`
	Consumed  int               `json:"consumed"`
	Deaths    []string          `json:"deaths,omitempty"`
	Completed []string          `json:"completed,omitempty"`
	GameOver  bool              `json:"game_over,omitempty"`
}

// STATE (server -> client)
type StateMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	VillageID       string         `json:"village_id"`
	Day             int            `json:"day"`
	GameOver        bool           `json:"game_over"`
	Outcome         string         `json:"outcome,omitempty"`
	Stocks          Stocks         `json:"stocks"`
	MaxWorkers      int            `json:"max_workers"`
	Workers         []WorkerView   `json:"workers"`
	Projects        []ProjectView  `json:"projects"`
	Buildings       []BuildingView `json:"buildings"`
	Digest          string         `json:"digest"`
}

type Stocks struct {
	Food        int `json:"food"`
	Wood        int `json:"wood"`
	Metal       int `json:"metal"`
	FoodPerDay  int `json:"food_per_day"`
	WoodPerDay  int `json:"wood_per_day"`
	MetalPerDay int `json:"metal_per_day"`
}

type WorkerView struct {
	Name       string `json:"name"`
	Occupation string `json:"occupation"`
	DaysHungry int    `json:"days_hungry"`
}

type ProjectView struct {
	Name     string `json:"name"`
	DaysLeft int    `json:"days_left"`
}

type BuildingView struct {
	Name         string `json:"name"`
	CompletedDay int    `json:"completed_day"`
}
