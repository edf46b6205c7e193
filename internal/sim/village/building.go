package village

import "github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"

type Building struct {
	Name         string          `json:"name"`
	Effect       catalogs.Effect `json:"effect"`
	CompletedDay int             `json:"completed_day"`
}

func newBuilding(def catalogs.ProjectDef, day int) Building {
	return Building{Name: def.ID, Effect: def.Effect, CompletedDay: day}
}
