package construction

// Rule controls how builders influence daily progress.
type Rule struct {
	RequireBuilder bool
	BuilderBonus   int
}

// DailyProgress is the number of build-days every active project loses today.
// Without RequireBuilder a project always advances by at least one day.
func DailyProgress(builders int, r Rule) int {
	if builders < 0 {
		builders = 0
	}
	if r.RequireBuilder && builders == 0 {
		return 0
	}
	return 1 + r.BuilderBonus*builders
}

func DaysLeftAfter(daysLeft, progress int) int {
	if progress <= 0 {
		return daysLeft
	}
	next := daysLeft - progress
	if next < 0 {
		next = 0
	}
	return next
}
