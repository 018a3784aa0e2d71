package service

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pageza/dishcraft/backend/internal/types"
)

// fastingExcluded lists ingredient words that are never picked for a fasting
// request. Words match whole, optionally plural.
var fastingExcluded = map[string]bool{
	"onion": true, "garlic": true, "shallot": true, "leek": true,
	"meat": true, "meatball": true, "chicken": true, "mutton": true, "lamb": true,
	"beef": true, "steak": true, "pork": true, "bacon": true, "ham": true,
	"fish": true, "prawn": true, "shrimp": true, "keema": true, "sausage": true,
	"turkey": true,
}

// fastingStaples stand in when every ingredient of a fasting request was excluded
var fastingStaples = []string{"Potato", "Sabudana", "Peanuts"}

// cookingMethod is a fixed step template filled in with the picked ingredients
type cookingMethod struct {
	name       string
	difficulty string
	utensils   []string
	prepMin    int
	cookMin    int
	steps      func(p methodParams) []string
}

type methodParams struct {
	main, second, finish string
	fat                  string
	cookMin              int
}

var cookingMethods = []cookingMethod{
	{
		name:       "saute and simmer",
		difficulty: "Easy",
		utensils:   []string{"Kadhai (wok)", "Spatula", "Measuring cups"},
		prepMin:    10,
		cookMin:    20,
		steps: func(p methodParams) []string {
			return []string{
				"Rinse and prep all ingredients; chop them evenly so they cook at the same rate.",
				fmt.Sprintf("Heat 1 tbsp %s in a kadhai on medium heat for 1 minute.", p.fat),
				"Add cumin seeds and whole spices; let them crackle for 20-30 seconds.",
				fmt.Sprintf("Add the %s and saute 2-3 minutes until aromatic.", p.main),
				fmt.Sprintf("Stir in the %s; cook on medium for 4-6 minutes, stirring occasionally.", p.second),
				"Season with salt and ground spices; sprinkle 1-2 tbsp water if the masala sticks.",
				fmt.Sprintf("Cover and simmer on low for %d minutes until tender.", p.cookMin-10),
				fmt.Sprintf("Fold in the %s and cook 1-2 minutes to combine.", p.finish),
				"Taste, adjust seasoning, rest 1 minute off the heat and serve warm.",
			}
		},
	},
	{
		name:       "stir-fry",
		difficulty: "Easy",
		utensils:   []string{"Wide skillet", "Wooden spoon", "Chopping board"},
		prepMin:    12,
		cookMin:    12,
		steps: func(p methodParams) []string {
			return []string{
				fmt.Sprintf("Cut the %s into thin, even strips and pat dry.", p.main),
				fmt.Sprintf("Dice the %s into small cubes and keep separate.", p.second),
				fmt.Sprintf("Heat a skillet on high for 2 minutes, then add 1 tbsp %s.", p.fat),
				fmt.Sprintf("Add the %s and toss on high heat for 3-4 minutes until the edges brown.", p.main),
				fmt.Sprintf("Add the %s and keep tossing for %d minutes so it stays crisp.", p.second, p.cookMin/3),
				"Sprinkle salt, chilli flakes and a pinch of ground cumin; toss 30 seconds.",
				fmt.Sprintf("Add the %s and stir-fry 1 minute until just coated.", p.finish),
				"Finish with lemon juice, take off the heat and serve immediately.",
			}
		},
	},
	{
		name:       "slow-cook",
		difficulty: "Medium",
		utensils:   []string{"Heavy-bottomed pot", "Ladle", "Measuring spoons"},
		prepMin:    15,
		cookMin:    45,
		steps: func(p methodParams) []string {
			return []string{
				fmt.Sprintf("Wash the %s and cut it into large chunks.", p.main),
				fmt.Sprintf("Warm 1 tbsp %s in a heavy pot on low heat for 2 minutes.", p.fat),
				"Toast cumin, bay leaf and black pepper for 1 minute until fragrant.",
				fmt.Sprintf("Add the %s and %s; stir to coat in the spices.", p.main, p.second),
				"Pour in 2 cups water and a pinch of salt; bring to a gentle boil.",
				fmt.Sprintf("Lower the heat, cover and cook for %d minutes, stirring every 10 minutes.", p.cookMin-10),
				"Mash a few pieces against the pot to thicken the gravy to a coating consistency.",
				fmt.Sprintf("Stir in the %s and simmer uncovered for 5 minutes.", p.finish),
				"Rest 5 minutes off the heat so the flavours settle, then serve.",
			}
		},
	},
}

// MockGenerator builds dishes from the request alone. It never fails and
// never touches the network; the same request always yields the same titles
// and ingredient picks.
type MockGenerator struct{}

// NewMockGenerator creates a new MockGenerator instance
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns exactly three dishes for the request
func (g *MockGenerator) Generate(req *types.GenerationRequest) *types.DishList {
	calorieTarget := req.CalorieTarget()
	servings := req.Servings
	if servings < 1 {
		servings = 1
	}
	spice := req.SpiceLevel
	if spice == "" {
		spice = "Medium"
	}

	pool := mockPool(req)
	pick := func(i int) string { return pool[i%len(pool)] }

	var tags []string
	if req.Fasting {
		tags = append(tags, "Fasting")
	}
	switch req.Diet {
	case "Vegan", "Veg", "Jain":
		tags = append(tags, "Plant Based")
	}
	if calorieTarget <= 350 {
		tags = append(tags, "Low Calorie")
	}
	tags = append(tags, req.Diet, req.MealType)

	fat := "ghee"
	allergens := types.StringList{"Dairy"}
	if req.Diet == "Vegan" {
		fat = "oil"
		allergens = types.StringList{}
	}

	fastingPrefix := ""
	if req.Fasting {
		fastingPrefix = "Fasting "
	}
	titles := []string{
		fmt.Sprintf("%s%s %s Bowl", fastingPrefix, req.Diet, req.MealType),
		fmt.Sprintf("%s Spiced %s Medley", req.Diet, pick(0)),
		fmt.Sprintf("%s %s & %s Delight", req.MealType, pick(1), pick(2)),
	}

	dishes := make([]types.Dish, len(titles))
	for idx, title := range titles {
		n := idx + 1
		method := cookingMethods[idx%len(cookingMethods)]
		cookMin := method.cookMin + 2*(servings-1)
		if cookMin > method.cookMin+20 {
			cookMin = method.cookMin + 20
		}
		params := methodParams{
			main:    pick(n),
			second:  pick(n + 1),
			finish:  pick(n + 2),
			fat:     fat,
			cookMin: cookMin,
		}

		dishes[idx] = types.Dish{
			ID:         fmt.Sprintf("%s-%d", types.Slugify(title), n),
			Title:      title,
			Summary:    fmt.Sprintf("%s friendly %s, %s spice, serves %d.", req.MealType, method.name, strings.ToLower(spice), servings),
			Servings:   types.FlexInt(servings),
			PrepTime:   fmt.Sprintf("%d min", method.prepMin),
			CookTime:   fmt.Sprintf("%d min", cookMin),
			TotalTime:  fmt.Sprintf("%d min", method.prepMin+cookMin),
			Difficulty: method.difficulty,
			Utensils:   append(types.StringList(nil), method.utensils...),
			Ingredients: []types.IngredientLine{
				{Name: params.main, Quantity: fmt.Sprintf("%d g", 200*servings)},
				{Name: params.second, Quantity: fmt.Sprintf("%d g", 120*servings)},
				{Name: params.finish, Quantity: "to taste"},
			},
			Steps: method.steps(params),
			Nutrition: types.Nutrition{
				Calories: types.FlexFloat(calorieTarget),
				Protein:  types.FlexFloat(18 + n),
				Carbs:    types.FlexFloat(45 + n*2),
				Fat:      types.FlexFloat(12 + n),
			},
			Allergens: append(types.StringList{}, allergens...),
			Tips: types.StringList{
				"Cut evenly to avoid under- or overcooking.",
				"Add a squeeze of lemon before serving for brightness.",
			},
			Variations: types.StringList{
				fmt.Sprintf("Swap %s for a different fat to change the flavour.", fat),
				"Add roasted peanuts for crunch.",
			},
			Tags:        append(types.StringList{}, tags...),
			ImagePrompt: fmt.Sprintf("%s, Indian %s, plated, soft studio lighting, appetizing, 16:9", title, req.MealType),
		}
	}
	return &types.DishList{Dishes: dishes}
}

// mockPool returns the ingredients the generator may pick from
func mockPool(req *types.GenerationRequest) []string {
	pool := make([]string, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		ing = strings.TrimSpace(ing)
		if ing == "" {
			continue
		}
		if req.Fasting && fastingForbidden(ing) {
			continue
		}
		pool = append(pool, ing)
	}
	if len(pool) == 0 {
		return fastingStaples
	}
	return pool
}

func fastingForbidden(ingredient string) bool {
	words := strings.FieldsFunc(strings.ToLower(ingredient), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		if fastingExcluded[word] {
			return true
		}
		if singular, ok := strings.CutSuffix(word, "es"); ok && fastingExcluded[singular] {
			return true
		}
		if singular, ok := strings.CutSuffix(word, "s"); ok && fastingExcluded[singular] {
			return true
		}
	}
	return false
}
