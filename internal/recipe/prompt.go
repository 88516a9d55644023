package recipe

import (
	"fmt"
	"strings"
)

// SystemPrompt is sent to LLM generators ahead of the user prompt.
const SystemPrompt = "You are a helpful cooking assistant. Write clear, practical recipes " +
	"in markdown with a title, an ingredient list and numbered steps."

// Prompt renders the user prompt for a request. Empty fields are left out so
// the model is free to choose.
func Prompt(r Request) string {
	var b strings.Builder
	b.WriteString("Create a recipe")
	if v := r.Get(FieldMealType); v != "" {
		fmt.Fprintf(&b, " for %s", strings.ToLower(v))
	}
	b.WriteString(".\n")

	lines := []struct {
		label string
		field string
	}{
		{"Ingredients to use", FieldIngredients},
		{"Cuisine", FieldCuisine},
		{"Diet", FieldDiet},
		{"Cooking time", FieldCookingTime},
		{"Complexity", FieldComplexity},
		{"Servings", FieldServings},
		{"Calories", FieldCalories},
	}
	for _, l := range lines {
		if v := r.Get(l.field); v != "" {
			fmt.Fprintf(&b, "- %s: %s\n", l.label, v)
		}
	}
	return b.String()
}

// Ingredients splits the comma separated ingredient field.
func Ingredients(r Request) []string {
	var out []string
	for _, part := range strings.Split(r.Get(FieldIngredients), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
