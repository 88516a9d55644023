package recipe

// Options are the choice lists offered by the input form. The server
// publishes them at /api/options so clients stay in sync.
type Options struct {
	MealTypes    []string `json:"mealTypes" yaml:"meal_types"`
	CookingTimes []string `json:"cookingTimes" yaml:"cooking_times"`
	Complexities []string `json:"complexities" yaml:"complexities"`
}

// DefaultOptions returns the built-in choice lists.
func DefaultOptions() Options {
	return Options{
		MealTypes:    []string{"Breakfast", "Lunch", "Dinner", "Snack"},
		CookingTimes: []string{"Less than 30 minutes", "30-60 minutes", "More than 1 hour"},
		Complexities: []string{"Beginner", "Intermediate", "Advanced"},
	}
}

// Merge fills empty lists in o from fallback.
func (o Options) Merge(fallback Options) Options {
	if len(o.MealTypes) == 0 {
		o.MealTypes = fallback.MealTypes
	}
	if len(o.CookingTimes) == 0 {
		o.CookingTimes = fallback.CookingTimes
	}
	if len(o.Complexities) == 0 {
		o.Complexities = fallback.Complexities
	}
	return o
}
