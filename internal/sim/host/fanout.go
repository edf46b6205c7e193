package host

import (
	"errors"

	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

// DayLoggers fans one day log entry out to every sink, skipping nil ones.
type DayLoggers []village.DayLogger

func (ls DayLoggers) WriteDay(e village.DayLogEntry) error {
	var errs []error
	for _, l := range ls {
		if l == nil {
			continue
		}
		if err := l.WriteDay(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
