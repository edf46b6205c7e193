package ws

import (
	"github.com/KungSimon/VillageOfTesting/internal/protocol"
	"github.com/KungSimon/VillageOfTesting/internal/sim/host"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

func welcomeFor(v *village.Village) protocol.WelcomeMsg {
	cats := v.Catalogs()
	tune := v.Tuning()

	occs := make([]string, 0, 4)
	for _, o := range village.Occupations() {
		occs = append(occs, o.String())
	}
	projects := make([]protocol.ProjectInfo, 0, len(cats.Projects.Order))
	for _, id := range cats.Projects.Order {
		def := cats.Projects.ByID[id]
		projects = append(projects, protocol.ProjectInfo{
			ID:        def.ID,
			WoodCost:  def.WoodCost,
			MetalCost: def.MetalCost,
			BuildDays: def.BuildDays,
			EndsGame:  def.EndsGame,
		})
	}
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		VillageID:       v.ID(),
		Occupations:     occs,
		Projects:        projects,
		Catalogs: protocol.CatalogDigests{
			ProjectsDigest: cats.Projects.Digest,
			TuningDigest:   tune.Digest(),
		},
		Rules: protocol.RuleSummary{
			StarvationDays: v.StarvationDays(),
			FoodPolicy:     tune.Food.Policy,
			RequireBuilder: tune.Construction.RequireBuilder,
		},
	}
}

func ackMsg(cmdID string, res host.Result) protocol.AckMsg {
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		CmdID:           cmdID,
		Accepted:        res.Accepted,
		Code:            codeFor(res.Err),
	}
	if res.Err != nil {
		ack.Message = res.Err.Error()
	}
	for _, r := range res.Reports {
		ack.Days = append(ack.Days, protocol.DaySummary{
			Day:       r.Day,
			Produced:  r.Produced,
			Consumed:  r.Consumed,
			Deaths:    r.Deaths,
			Completed: r.Completed,
			GameOver:  r.GameOver,
		})
	}
	return ack
}

func badRequest(cmdID, code, msg string) protocol.AckMsg {
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		CmdID:           cmdID,
		Code:            code,
		Message:         msg,
	}
}

func stateMsg(st host.State) protocol.StateMsg {
	l := st.Stocks
	m := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		VillageID:       st.VillageID,
		Day:             st.Day,
		GameOver:        st.GameOver,
		Outcome:         string(st.Outcome),
		Stocks: protocol.Stocks{
			Food: l.Food, Wood: l.Wood, Metal: l.Metal,
			FoodPerDay: l.FoodPerDay, WoodPerDay: l.WoodPerDay, MetalPerDay: l.MetalPerDay,
		},
		MaxWorkers: st.MaxWorkers,
		Workers:    make([]protocol.WorkerView, 0, len(st.Workers)),
		Projects:   make([]protocol.ProjectView, 0, len(st.Projects)),
		Buildings:  make([]protocol.BuildingView, 0, len(st.Buildings)),
		Digest:     st.Digest,
	}
	for _, w := range st.Workers {
		m.Workers = append(m.Workers, protocol.WorkerView{Name: w.Name, Occupation: w.Occupation.String(), DaysHungry: w.DaysHungry})
	}
	for _, p := range st.Projects {
		m.Projects = append(m.Projects, protocol.ProjectView{Name: p.Name, DaysLeft: p.DaysLeft})
	}
	for _, b := range st.Buildings {
		m.Buildings = append(m.Buildings, protocol.BuildingView{Name: b.Name, CompletedDay: b.CompletedDay})
	}
	return m
}
