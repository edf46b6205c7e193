// Package replay re-simulates a recorded day log against a village and checks
// that every day ends in the logged state.
package replay

import (
	"errors"
	"fmt"

	persistlog "github.com/KungSimon/VillageOfTesting/internal/persistence/log"
	"github.com/KungSimon/VillageOfTesting/internal/sim/village"
)

var errStop = errors.New("stop")

// Verify re-issues every logged command against v, steps the day and compares
// digests. Entries before v's current day are skipped; toDay < 0 means no
// upper bound. It returns the number of days checked.
func Verify(v *village.Village, dayDir string, toDay int) (int, error) {
	startDay := v.DaysGone()
	checked := 0
	err := persistlog.ReadDays(dayDir, func(e village.DayLogEntry) error {
		if e.Day < startDay {
			return nil
		}
		if toDay >= 0 && e.Day > toDay {
			return errStop
		}
		if e.Day != v.DaysGone() {
			return fmt.Errorf("day mismatch: want=%d got=%d", v.DaysGone(), e.Day)
		}
		for i, c := range e.Commands {
			var err error
			switch c.Op {
			case village.OpAddWorker:
				err = v.Admit(c.Name, c.Occupation)
			case village.OpAddProject:
				err = v.Commission(c.Name)
			default:
				return fmt.Errorf("day %d command %d: unknown op %q", e.Day, i, c.Op)
			}
			if (err == nil) != c.Accepted {
				return fmt.Errorf("day %d command %d (%s %s): accepted=%v logged=%v", e.Day, i, c.Op, c.Name, err == nil, c.Accepted)
			}
		}
		v.Day()
		checked++
		if got := v.StateDigest(); got != e.Digest {
			return fmt.Errorf("digest mismatch at day %d: got=%s want=%s", e.Day, got, e.Digest)
		}
		return nil
	})
	if errors.Is(err, errStop) {
		err = nil
	}
	return checked, err
}
