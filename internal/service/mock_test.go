package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/dishcraft/backend/internal/types"
)

func fastingLunch() *types.GenerationRequest {
	return &types.GenerationRequest{
		Diet:         "Veg",
		MealType:     "Lunch",
		CalorieRange: "Low",
		Fasting:      true,
		Ingredients:  []string{"Potato", "Peanuts", "Cumin"},
		Servings:     1,
		SpiceLevel:   "Medium",
	}
}

func dishText(d types.Dish) string {
	parts := []string{d.Title, d.Summary, d.ImagePrompt}
	for _, ing := range d.Ingredients {
		parts = append(parts, ing.Name)
	}
	parts = append(parts, d.Steps...)
	return strings.ToLower(strings.Join(parts, " "))
}

func TestMockGenerator_Generate(t *testing.T) {
	list := NewMockGenerator().Generate(fastingLunch())
	require.Len(t, list.Dishes, DishesPerResponse)

	assert.Equal(t, "Fasting Veg Lunch Bowl", list.Dishes[0].Title)
	assert.Equal(t, "Veg Spiced Potato Medley", list.Dishes[1].Title)
	assert.Equal(t, "Lunch Peanuts & Cumin Delight", list.Dishes[2].Title)

	ids := map[string]bool{}
	for _, dish := range list.Dishes {
		ids[dish.ID] = true

		assert.Contains(t, dish.Tags, "Fasting")
		assert.Contains(t, dish.Tags, "Plant Based")
		assert.Contains(t, dish.Tags, "Low Calorie")
		assert.EqualValues(t, 300, dish.Nutrition.Calories)
		assert.GreaterOrEqual(t, len(dish.Steps), 7)
		assert.Len(t, dish.Ingredients, 3)
		assert.NotEmpty(t, dish.ImagePrompt)

		text := dishText(dish)
		for _, forbidden := range []string{"onion", "garlic", "meat"} {
			assert.NotContains(t, text, forbidden, dish.Title)
		}
	}
	assert.Len(t, ids, DishesPerResponse)
}

func TestMockGenerator_Deterministic(t *testing.T) {
	g := NewMockGenerator()
	first := g.Generate(fastingLunch())
	second := g.Generate(fastingLunch())
	assert.Equal(t, first, second)
}

func TestMockGenerator_StepsDifferPerDish(t *testing.T) {
	fastingSingle := fastingLunch()
	fastingSingle.Ingredients = []string{"Onion", "Garlic", "Potato"}

	tests := []struct {
		name string
		req  *types.GenerationRequest
	}{
		{name: "distinct ingredients", req: fastingLunch()},
		{name: "one repeated ingredient", req: func() *types.GenerationRequest {
			r := fastingLunch()
			r.Ingredients = []string{"Potato", "Potato", "Potato"}
			return r
		}()},
		{name: "fasting pool reduced to one", req: fastingSingle},
		{name: "non fasting", req: func() *types.GenerationRequest {
			r := fastingLunch()
			r.Fasting = false
			r.Diet = "Non-Veg"
			r.Ingredients = []string{"Chicken", "Rice", "Yogurt"}
			return r
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := NewMockGenerator().Generate(tt.req)
			require.Len(t, list.Dishes, DishesPerResponse)
			steps := make([]string, len(list.Dishes))
			for i, dish := range list.Dishes {
				steps[i] = strings.Join(dish.Steps, "\n")
			}
			for i := range steps {
				for j := i + 1; j < len(steps); j++ {
					assert.NotEqual(t, steps[i], steps[j], "dishes %d and %d share steps", i, j)
				}
			}
		})
	}
}

func TestMockGenerator_FastingExcludesIngredients(t *testing.T) {
	req := fastingLunch()
	req.Ingredients = []string{"Red Onion", "Garlic", "Chicken Breast", "Sweet Potato", "Paneer"}

	list := NewMockGenerator().Generate(req)
	for _, dish := range list.Dishes {
		for _, ing := range dish.Ingredients {
			assert.Contains(t, []string{"Sweet Potato", "Paneer"}, ing.Name)
		}
	}
}

func TestMockGenerator_FastingMatchesWholeWords(t *testing.T) {
	req := fastingLunch()
	req.Ingredients = []string{"Champignon", "Beefsteak Tomato", "Hummus", "Spring Onions", "Ham-hock", "Prawns"}

	list := NewMockGenerator().Generate(req)
	picked := map[string]bool{}
	for _, dish := range list.Dishes {
		for _, ing := range dish.Ingredients {
			picked[ing.Name] = true
		}
	}
	assert.Equal(t, map[string]bool{"Champignon": true, "Beefsteak Tomato": true, "Hummus": true}, picked)
}

func TestFastingForbidden(t *testing.T) {
	tests := []struct {
		ingredient string
		want       bool
	}{
		{"Onion", true},
		{"red onions", true},
		{"Garlic cloves", true},
		{"Chicken Breast", true},
		{"Beef", true},
		{"Fishes", true},
		{"smoked-ham", true},
		{"Champignon", false},
		{"Beefsteak Tomato", false},
		{"Shamrock Greens", false},
		{"Sweet Potato", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fastingForbidden(tt.ingredient), tt.ingredient)
	}
}

func TestMockGenerator_FastingStaplesWhenEverythingExcluded(t *testing.T) {
	req := fastingLunch()
	req.Ingredients = []string{"Onion", "Garlic", "Mutton"}

	list := NewMockGenerator().Generate(req)
	for _, dish := range list.Dishes {
		for _, ing := range dish.Ingredients {
			assert.Contains(t, fastingStaples, ing.Name)
		}
	}
}

func TestMockGenerator_ServingsScaleCookTime(t *testing.T) {
	req := fastingLunch()
	req.Fasting = false
	req.Diet = "Vegan"
	req.CalorieRange = "High"
	req.Servings = 4

	list := NewMockGenerator().Generate(req)
	dish := list.Dishes[0]
	assert.EqualValues(t, 4, dish.Servings)
	assert.Equal(t, "26 min", dish.CookTime)
	assert.Equal(t, "36 min", dish.TotalTime)
	assert.Equal(t, "800 g", dish.Ingredients[0].Quantity)
	assert.Empty(t, dish.Allergens)
	assert.NotContains(t, dish.Tags, "Fasting")
	assert.NotContains(t, dish.Tags, "Low Calorie")
	assert.Contains(t, strings.Join(dish.Steps, " "), "oil")

	req.Servings = 50
	capped := NewMockGenerator().Generate(req)
	assert.Equal(t, "40 min", capped.Dishes[0].CookTime)
}
