package components

// Task is an agent's behavioral state.
type Task uint8

const (
	Nurse Task = iota
	Forage
	FoodHandling // Entered only by a nurse receiving food
)

// NumTasks is the number of behavioral states.
const NumTasks = 3

// NumLaborTasks is the number of labor categories seen by statistics.
const NumLaborTasks = 2

// Labor returns the labor category recorded for the task.
// Food handling is part of nursing.
func (t Task) Labor() Task {
	if t == FoodHandling {
		return Nurse
	}
	return t
}

// String returns the task name.
func (t Task) String() string {
	switch t {
	case Nurse:
		return "nurse"
	case Forage:
		return "forage"
	case FoodHandling:
		return "food_handling"
	default:
		return "unknown"
	}
}
