package village

import (
	"github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/construction"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/production"
)

// Day advances the village by one day:
// production -> food -> starvation -> construction -> game over -> counter.
// Once the game is over Day does nothing.
func (v *Village) Day() DayReport {
	if v.gameOver {
		return DayReport{Day: v.daysGone, Skipped: true, GameOver: true, Outcome: v.outcome}
	}

	rep := DayReport{Day: v.daysGone}
	v.stepProduction(&rep)
	v.stepFood(&rep)
	v.stepStarvation(&rep)
	victory := v.stepConstruction(&rep)
	v.stepGameOver(&rep, victory)
	v.daysGone++

	v.emitDay(rep)
	return rep
}

func (v *Village) stepProduction(rep *DayReport) {
	out := v.ledger.Rates()
	for _, w := range v.workers {
		out = out.Plus(production.WorkerOutput(v.yields[w.Occupation], w.DaysHungry))
	}
	v.ledger.produce(out)
	rep.Produced = out
}

func (v *Village) stepFood(rep *DayReport) {
	before := v.ledger.Food
	left, fed := v.ration.Ration(before, len(v.workers))
	v.ledger.Food = nonNegative(left)
	rep.Consumed = before - v.ledger.Food
	for i := range v.workers {
		v.workers[i].endDay(i < fed)
	}
	rep.Fed = min(fed, len(v.workers))
	rep.Hungry = len(v.workers) - rep.Fed
}

func (v *Village) stepStarvation(rep *DayReport) {
	alive := v.workers[:0]
	for _, w := range v.workers {
		w.checkStarvation(v.tune.StarvationDays)
		if w.Alive {
			alive = append(alive, w)
			continue
		}
		rep.Deaths = append(rep.Deaths, w.Name)
		v.log.Debug("worker starved", "name", w.Name, "occupation", w.Occupation.String(), "day", v.daysGone)
	}
	// Drop references held past the new length.
	clear(v.workers[len(alive):])
	v.workers = alive
}

// stepConstruction advances every project and reports whether a completed
// building ends the game.
func (v *Village) stepConstruction(rep *DayReport) bool {
	builders := 0
	for _, w := range v.workers {
		if w.Occupation == Builder && !w.Hungry() {
			builders++
		}
	}
	progress := construction.DailyProgress(builders, v.build)
	rep.Progress = progress

	victory := false
	active := v.projects[:0]
	for _, p := range v.projects {
		p.advance(progress)
		if !p.Done() {
			active = append(active, p)
			continue
		}
		v.complete(p.def)
		rep.Completed = append(rep.Completed, p.Name)
		v.log.Debug("project completed", "name", p.Name, "day", v.daysGone)
		if p.def.EndsGame {
			victory = true
		}
	}
	clear(v.projects[len(active):])
	v.projects = active
	return victory
}

func (v *Village) stepGameOver(rep *DayReport, victory bool) {
	switch {
	case v.hadWorkers && len(v.workers) == 0:
		v.gameOver = true
		v.outcome = OutcomeExtinction
	case victory:
		v.gameOver = true
		v.outcome = OutcomeVictory
	}
	if v.gameOver {
		v.log.Info("game over", "outcome", string(v.outcome), "day", v.daysGone)
	}
	rep.GameOver = v.gameOver
	rep.Outcome = v.outcome
}

func (v *Village) emitDay(rep DayReport) {
	cmds := v.pending
	v.pending = nil
	if v.dayLogger == nil {
		return
	}
	entry := DayLogEntry{
		VillageID: v.id,
		Day:       rep.Day,
		Commands:  cmds,
		Report:    rep,
		Stocks:    v.ledger,
		Workers:   len(v.workers),
		Projects:  len(v.projects),
		Buildings: len(v.buildings),
		Digest:    v.StateDigest(),
	}
	if err := v.dayLogger.WriteDay(entry); err != nil {
		v.log.Warn("day log write failed", "day", rep.Day, "err", err)
	}
}
