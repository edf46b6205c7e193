package village

import (
	"github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/production"
)

// Ledger holds the village stocks and the per-day rates granted by buildings.
// Stocks never go negative.
type Ledger struct {
	Food  int `json:"food"`
	Wood  int `json:"wood"`
	Metal int `json:"metal"`

	WoodPerDay  int `json:"wood_per_day"`
	MetalPerDay int `json:"metal_per_day"`
	FoodPerDay  int `json:"food_per_day"`
}

func (l Ledger) CanAfford(wood, metal int) bool {
	return l.Wood >= wood && l.Metal >= metal
}

// Rates is the building-driven daily production.
func (l Ledger) Rates() production.Output {
	return production.Output{Food: l.FoodPerDay, Wood: l.WoodPerDay, Metal: l.MetalPerDay}
}

func (l *Ledger) spend(wood, metal int) bool {
	if !l.CanAfford(wood, metal) {
		return false
	}
	l.Wood -= wood
	l.Metal -= metal
	return true
}

func (l *Ledger) produce(out production.Output) {
	l.Food, l.Wood, l.Metal = production.Apply(l.Food, l.Wood, l.Metal, out)
}

func (l *Ledger) apply(e catalogs.Effect) {
	l.WoodPerDay += nonNegative(e.WoodPerDay)
	l.MetalPerDay += nonNegative(e.MetalPerDay)
	l.FoodPerDay += nonNegative(e.FoodPerDay)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
