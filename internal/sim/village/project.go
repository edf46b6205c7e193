package village

import (
	"github.com/KungSimon/VillageOfTesting/internal/sim/catalogs"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/construction"
)

// Project is construction in progress. Its cost was paid when it was started.
type Project struct {
	Name       string `json:"name"`
	DaysLeft   int    `json:"days_left"`
	BuildDays  int    `json:"build_days"`
	StartedDay int    `json:"started_day"`

	def catalogs.ProjectDef
}

func newProject(def catalogs.ProjectDef, day int) Project {
	return Project{
		Name:       def.ID,
		DaysLeft:   def.BuildDays,
		BuildDays:  def.BuildDays,
		StartedDay: day,
		def:        def,
	}
}

func (p Project) Done() bool { return p.DaysLeft <= 0 }

func (p *Project) advance(progress int) {
	p.DaysLeft = construction.DaysLeftAfter(p.DaysLeft, progress)
}
