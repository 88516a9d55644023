package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/aarishlakhani/AI-recipe-gen/internal/recipe"
)

// ErrMockFailure is returned by a Mock configured with FailAfter.
var ErrMockFailure = errors.New("mock generator failure")

type MockConfig struct {
	Delay     time.Duration // pause before each fragment
	Words     int           // words per fragment
	FailAfter int           // fail after this many fragments; 0 never fails
}

// Mock writes a deterministic recipe derived from the request. It needs no
// network access and is the default provider.
type Mock struct {
	cfg MockConfig
}

func NewMock(cfg MockConfig) *Mock {
	if cfg.Words <= 0 {
		cfg.Words = 3
	}
	return &Mock{cfg: cfg}
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Generate(ctx context.Context, req recipe.Request, emit EmitFunc) error {
	for i, frag := range Split(MockRecipe(req), m.cfg.Words) {
		if m.cfg.FailAfter > 0 && i >= m.cfg.FailAfter {
			return ErrMockFailure
		}
		if err := sleep(ctx, m.cfg.Delay); err != nil {
			return err
		}
		if err := emit(frag); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// MockRecipe renders the markdown recipe the mock generator streams.
func MockRecipe(req recipe.Request) string {
	ingredients := recipe.Ingredients(req)
	if len(ingredients) == 0 {
		ingredients = []string{"rice", "onion", "garlic"}
	}

	title := "House"
	if c := req.Get(recipe.FieldCuisine); c != "" {
		title = c
	}
	meal := req.Get(recipe.FieldMealType)
	if meal == "" {
		meal = "Dinner"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s Bowl\n\n", title, meal)

	var meta []string
	if v := req.Get(recipe.FieldCookingTime); v != "" {
		meta = append(meta, "**Time:** "+v)
	}
	if v := req.Get(recipe.FieldComplexity); v != "" {
		meta = append(meta, "**Level:** "+v)
	}
	if v := req.Get(recipe.FieldServings); v != "" {
		meta = append(meta, "**Serves:** "+v)
	}
	if v := req.Get(recipe.FieldCalories); v != "" {
		meta = append(meta, "**Calories:** "+v)
	}
	if v := req.Get(recipe.FieldDiet); v != "" {
		meta = append(meta, "**Diet:** "+v)
	}
	if len(meta) > 0 {
		b.WriteString(strings.Join(meta, " · "))
		b.WriteString("\n\n")
	}

	b.WriteString("## Ingredients\n\n")
	for _, ing := range ingredients {
		fmt.Fprintf(&b, "- %s\n", ing)
	}
	b.WriteString("- salt and pepper\n- 1 tbsp olive oil\n\n")

	b.WriteString("## Steps\n\n")
	steps := []string{
		fmt.Sprintf("Prepare the %s: wash, peel and chop into even pieces.", strings.Join(ingredients, ", ")),
		"Heat the olive oil in a wide pan over medium heat.",
		fmt.Sprintf("Add the %s and cook until golden, about 5 minutes.", ingredients[0]),
		"Add the remaining ingredients, season with salt and pepper, and stir well.",
		"Cover and simmer until everything is tender.",
		"Taste, adjust the seasoning and serve warm.",
	}
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}

// Split cuts text into fragments of n words. Whitespace stays attached to
// the preceding word so the fragments concatenate back to text exactly.
func Split(text string, n int) []string {
	if n <= 0 {
		n = 1
	}
	var (
		out   []string
		start int
		words int
		inWS  bool
	)
	for i, r := range text {
		space := r == ' ' || r == '\n' || r == '\t'
		if !space && inWS {
			words++
			if words == n {
				out = append(out, text[start:i])
				start = i
				words = 0
			}
		}
		inWS = space
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}
