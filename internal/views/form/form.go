// Package form collects a recipe request with a huh form. Submitting emits
// SubmitMsg and leaves the form filled in, so the user can tweak a field
// and submit again.
package form

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
)

var errNotNumber = errors.New("enter a whole number")

// SubmitMsg carries a completed request.
type SubmitMsg struct {
	Request recipe.Request
}

// Model wraps the huh form and the values bound to it.
type Model struct {
	opts   recipe.Options
	values *recipe.Form
	form   *huh.Form
	width  int
}

// New builds a form offering opts, preset with their first choices.
func New(opts recipe.Options) Model {
	values := recipe.DefaultForm(opts)
	m := Model{opts: opts, values: &values}
	m.form = m.build()
	return m
}

// WithOptions rebuilds the form for new choice lists, keeping entered values.
func (m Model) WithOptions(opts recipe.Options) Model {
	m.opts = opts
	keep := *m.values
	if !slices.Contains(opts.MealTypes, keep.MealType) {
		keep.MealType = recipe.DefaultForm(opts).MealType
	}
	if !slices.Contains(opts.CookingTimes, keep.CookingTime) {
		keep.CookingTime = recipe.DefaultForm(opts).CookingTime
	}
	if !slices.Contains(opts.Complexities, keep.Complexity) {
		keep.Complexity = recipe.DefaultForm(opts).Complexity
	}
	m.values = &keep
	m.form = m.build()
	return m
}

// Values returns the current field values.
func (m Model) Values() recipe.Form { return *m.values }

func (m *Model) SetWidth(w int) {
	m.width = w
	m.form = m.form.WithWidth(w)
}

func (m Model) build() *huh.Form {
	v := m.values
	f := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Ingredients").
				Placeholder("chicken, rice, spinach").
				Value(&v.Ingredients),
			huh.NewSelect[string]().
				Title("Meal type").
				Options(huh.NewOptions(m.opts.MealTypes...)...).
				Value(&v.MealType),
			huh.NewInput().
				Title("Cuisine").
				Placeholder("Italian").
				Value(&v.Cuisine),
			huh.NewInput().
				Title("Dietary restrictions").
				Placeholder("vegetarian").
				Value(&v.Diet),
			huh.NewSelect[string]().
				Title("Cooking time").
				Options(huh.NewOptions(m.opts.CookingTimes...)...).
				Value(&v.CookingTime),
			huh.NewSelect[string]().
				Title("Complexity").
				Options(huh.NewOptions(m.opts.Complexities...)...).
				Value(&v.Complexity),
			huh.NewInput().
				Title("Servings").
				Placeholder("2").
				Validate(optionalNumber).
				Value(&v.Servings),
			huh.NewInput().
				Title("Calories per serving").
				Placeholder("600").
				Validate(optionalNumber).
				Value(&v.Calories),
		),
	).WithShowHelp(false)
	if m.width > 0 {
		f = f.WithWidth(m.width)
	}
	return f
}

func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.form.Update(msg)
	if f, ok := updated.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	req := m.values.Request()
	keep := *m.values
	m.values = &keep
	m.form = m.build()
	submit := func() tea.Msg { return SubmitMsg{Request: req} }
	return m, tea.Batch(cmd, m.form.Init(), submit)
}

func (m Model) View() string {
	return m.form.View()
}

func optionalNumber(s string) error {
	if s == "" {
		return nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return errNotNumber
		}
	}
	return nil
}
