package village

import "github.com/KungSimon/VillageOfTesting/internal/sim/village/feature/survival"

type Worker struct {
	Name       string     `json:"name"`
	Occupation Occupation `json:"occupation"`
	Alive      bool       `json:"alive"`
	DaysHungry int        `json:"days_hungry"`
}

func newWorker(name string, occ Occupation) Worker {
	return Worker{Name: name, Occupation: occ, Alive: true}
}

// Hungry reports whether the worker went without food on its last day.
func (w Worker) Hungry() bool { return w.DaysHungry > 0 }

func (w *Worker) endDay(fed bool) {
	w.DaysHungry = survival.HungerAfterDay(w.DaysHungry, fed)
}

func (w *Worker) checkStarvation(starvationDays int) {
	if survival.Starved(w.DaysHungry, starvationDays) {
		w.Alive = false
	}
}
