package survival

// HungerAfterDay returns the hunger counter after a day with or without food.
func HungerAfterDay(daysHungry int, fed bool) int {
	if fed {
		return 0
	}
	if daysHungry < 0 {
		daysHungry = 0
	}
	return daysHungry + 1
}

// Starved reports whether a worker has gone hungry for longer than it can bear.
func Starved(daysHungry, starvationDays int) bool {
	return daysHungry > starvationDays
}

// FlatRation consumes one unit for the whole village. Either every living
// worker eats or none does.
func FlatRation(food, living int) (left, fed int) {
	if food <= 0 {
		return 0, 0
	}
	return food - 1, living
}

// PerWorkerRation feeds workers one unit each, in roster order, while stock lasts.
func PerWorkerRation(food, living int) (left, fed int) {
	if food <= 0 || living <= 0 {
		if food < 0 {
			food = 0
		}
		return food, 0
	}
	if food >= living {
		return food - living, living
	}
	return 0, food
}
