// Package recipe holds the recipe request model shared by the terminal
// client, the stream transports and the generation server.
package recipe

import (
	"net/url"
	"sort"
	"strings"
)

// Wire names of the request fields, as sent in the stream query string.
const (
	FieldIngredients = "ingredients"
	FieldMealType    = "mealType"
	FieldCuisine     = "cuisine"
	FieldDiet        = "diet"
	FieldCookingTime = "cookingTime"
	FieldComplexity  = "complexity"
	FieldServings    = "numberOfServings"
	FieldCalories    = "calories"
)

// Fields lists every known request field in form order.
var Fields = []string{
	FieldIngredients,
	FieldMealType,
	FieldCuisine,
	FieldDiet,
	FieldCookingTime,
	FieldComplexity,
	FieldServings,
	FieldCalories,
}

// Request is a flat mapping of field name to value. A submitted request is
// never mutated; use Clone before changing a copy.
type Request map[string]string

// Get returns the trimmed value of a field.
func (r Request) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// Clone returns an independent copy of the request.
func (r Request) Clone() Request {
	out := make(Request, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Query encodes every field as a query parameter. Empty values are kept so
// the server sees the full form, as the original client sent it.
func (r Request) Query() url.Values {
	q := make(url.Values, len(r))
	for _, k := range r.keys() {
		q.Set(k, r[k])
	}
	return q
}

// FromQuery is the inverse of Query. Only the first value of a repeated
// parameter is kept.
func FromQuery(q url.Values) Request {
	r := make(Request, len(q))
	for k, vs := range q {
		if len(vs) == 0 {
			continue
		}
		r[k] = vs[0]
	}
	return r
}

func (r Request) keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Form is the typed view of a request used by the input form.
type Form struct {
	Ingredients string
	MealType    string
	Cuisine     string
	Diet        string
	CookingTime string
	Complexity  string
	Servings    string
	Calories    string
}

// DefaultForm returns a form preset with the first choice of each list.
func DefaultForm(opts Options) Form {
	return Form{
		MealType:    first(opts.MealTypes),
		CookingTime: first(opts.CookingTimes),
		Complexity:  first(opts.Complexities),
	}
}

// Request converts the form into a wire request.
func (f Form) Request() Request {
	return Request{
		FieldIngredients: f.Ingredients,
		FieldMealType:    f.MealType,
		FieldCuisine:     f.Cuisine,
		FieldDiet:        f.Diet,
		FieldCookingTime: f.CookingTime,
		FieldComplexity:  f.Complexity,
		FieldServings:    f.Servings,
		FieldCalories:    f.Calories,
	}
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
