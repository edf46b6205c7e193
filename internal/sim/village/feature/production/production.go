package production

// Output is a bundle of daily resource additions.
type Output struct {
	Food  int `json:"food"`
	Wood  int `json:"wood"`
	Metal int `json:"metal"`
}

func (o Output) Plus(p Output) Output {
	return Output{Food: o.Food + p.Food, Wood: o.Wood + p.Wood, Metal: o.Metal + p.Metal}
}

// WorkerOutput is what a worker contributes today. Hungry workers do not work.
func WorkerOutput(yield Output, daysHungry int) Output {
	if daysHungry > 0 {
		return Output{}
	}
	return clamp(yield)
}

// Apply adds out to the stocks, never lowering them.
func Apply(food, wood, metal int, out Output) (int, int, int) {
	out = clamp(out)
	return food + out.Food, wood + out.Wood, metal + out.Metal
}

func clamp(o Output) Output {
	if o.Food < 0 {
		o.Food = 0
	}
	if o.Wood < 0 {
		o.Wood = 0
	}
	if o.Metal < 0 {
		o.Metal = 0
	}
	return o
}
