package village

import (
	"fmt"

	"github.com/KungSimon/VillageOfTesting/internal/sim/tuning"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/survival"
)

// RationPolicy decides how much food a day costs and how many workers, in
// roster order, get to eat.
type RationPolicy interface {
	Name() string
	Ration(food, living int) (left, fed int)
}

type flatRation struct{}

func (flatRation) Name() string { return tuning.FoodPolicyFlat }
func (flatRation) Ration(food, living int) (int, int) {
	return survival.FlatRation(food, living)
}

type perWorkerRation struct{}

func (perWorkerRation) Name() string { return tuning.FoodPolicyPerWorker }
func (perWorkerRation) Ration(food, living int) (int, int) {
	return survival.PerWorkerRation(food, living)
}

func rationPolicyFor(name string) (RationPolicy, error) {
	switch name {
	case tuning.FoodPolicyFlat, "":
		return flatRation{}, nil
	case tuning.FoodPolicyPerWorker:
		return perWorkerRation{}, nil
	default:
		return nil, fmt.Errorf("unknown food policy %q", name)
	}
}
