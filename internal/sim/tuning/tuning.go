package tuning

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

const (
	FoodPolicyFlat      = "flat"
	FoodPolicyPerWorker = "per_worker"
)

type Tuning struct {
	StarvationDays int `yaml:"starvation_days" json:"starvation_days"`

	Start      Stocks `yaml:"start" json:"start"`
	MaxWorkers int    `yaml:"max_workers" json:"max_workers"`

	// StartingBuildings are project ids completed before day 0.
	StartingBuildings []string `yaml:"starting_buildings" json:"starting_buildings"`

	Food         FoodRules         `yaml:"food" json:"food"`
	Construction ConstructionRules `yaml:"construction" json:"construction"`

	Yields map[string]Yield `yaml:"yields" json:"yields"`
}

type Stocks struct {
	Food  int `yaml:"food" json:"food"`
	Wood  int `yaml:"wood" json:"wood"`
	Metal int `yaml:"metal" json:"metal"`
}

type FoodRules struct {
	Policy string `yaml:"policy" json:"policy"`
}

type ConstructionRules struct {
	RequireBuilder bool `yaml:"require_builder" json:"require_builder"`
	BuilderBonus   int  `yaml:"builder_bonus" json:"builder_bonus"`
}

// Yield is what one fed worker of an occupation adds per day.
type Yield struct {
	Food  int `yaml:"food" json:"food,omitempty"`
	Wood  int `yaml:"wood" json:"wood,omitempty"`
	Metal int `yaml:"metal" json:"metal,omitempty"`
}

// Defaults returns the embedded tuning.
func Defaults() Tuning {
	var t Tuning
	if err := yaml.Unmarshal(defaultsYAML, &t); err != nil {
		panic(fmt.Sprintf("tuning: embedded defaults: %v", err))
	}
	return t
}

// Load overlays the YAML file at path onto the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.StarvationDays < 0 {
		return fmt.Errorf("starvation_days must be >= 0, got %d", t.StarvationDays)
	}
	if t.Start.Food < 0 || t.Start.Wood < 0 || t.Start.Metal < 0 {
		return fmt.Errorf("start stocks must be >= 0")
	}
	if t.MaxWorkers < 0 {
		return fmt.Errorf("max_workers must be >= 0, got %d", t.MaxWorkers)
	}
	switch t.Food.Policy {
	case FoodPolicyFlat, FoodPolicyPerWorker:
	default:
		return fmt.Errorf("unknown food policy %q", t.Food.Policy)
	}
	if t.Construction.BuilderBonus < 0 {
		return fmt.Errorf("builder_bonus must be >= 0")
	}
	for occ, y := range t.Yields {
		if y.Food < 0 || y.Wood < 0 || y.Metal < 0 {
			return fmt.Errorf("yields.%s must be >= 0", occ)
		}
	}
	return nil
}

// Digest identifies the values actually applied. Nil and empty lists hash
// the same.
func (t Tuning) Digest() string {
	if t.StartingBuildings == nil {
		t.StartingBuildings = []string{}
	}
	if t.Yields == nil {
		t.Yields = map[string]Yield{}
	}
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
