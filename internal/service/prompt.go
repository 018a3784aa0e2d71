package service

import (
	"fmt"
	"strings"

	"github.com/pageza/dishcraft/backend/internal/types"
)

// BuildPrompt turns a validated request into the instruction sent to the model.
// Every dietary constraint is stated explicitly; the model is told to answer
// with JSON only.
func BuildPrompt(req *types.GenerationRequest, calorieTarget int) string {
	var b strings.Builder

	b.WriteString("You are an expert Indian chef. Propose exactly THREE distinct dishes and return them as a JSON array named \"dishes\".\n")
	b.WriteString("Every dish object MUST contain these fields with practical, detailed cooking guidance:\n")
	b.WriteString("- id (short slug), title, summary (1-2 lines)\n")
	b.WriteString("- servings, prepTime (e.g. \"10 min\"), cookTime (e.g. \"20 min\"), totalTime\n")
	b.WriteString("- difficulty (Easy, Medium or Hard)\n")
	b.WriteString("- utensils (array of cookware names)\n")
	b.WriteString("- ingredients (array of { \"name\", \"quantity\" })\n")
	b.WriteString("- steps (7-12 clear imperative steps with timing cues such as \"saute 2-3 min\", heat level and consistency cues)\n")
	b.WriteString("- nutrition { \"calories\", \"protein\", \"carbs\", \"fat\" } as numbers\n")
	b.WriteString("- allergens (array, may be empty), tips (array), variations (array)\n")
	b.WriteString("- tags (array) and imagePrompt (a concise prompt for photorealistic food photography)\n")

	b.WriteString("Respect these constraints strictly:\n")
	b.WriteString(fmt.Sprintf("- Diet: %s. %s\n", req.Diet, dietRule(req.Diet)))
	b.WriteString(fmt.Sprintf("- Meal type: %s.\n", req.MealType))
	if req.Fasting {
		b.WriteString("- Fasting: yes. Do NOT use onion, garlic or any meat.\n")
	} else {
		b.WriteString("- Fasting: no.\n")
	}
	b.WriteString(fmt.Sprintf("- Spice level: %s.\n", req.SpiceLevel))
	b.WriteString(fmt.Sprintf("- Servings: %d.\n", req.Servings))
	b.WriteString(fmt.Sprintf("- Calorie target per serving: about %d kcal.\n", calorieTarget))
	b.WriteString(fmt.Sprintf("- Available ingredients: %s.\n", strings.Join(req.Ingredients, ", ")))

	b.WriteString("Output STRICTLY valid JSON of the form { \"dishes\": [ ...3 items... ] } with no extra text.")
	return b.String()
}

func dietRule(diet string) string {
	switch diet {
	case "Non-Veg":
		return "Meat and eggs are allowed."
	case "Vegan":
		return "No meat, fish, eggs, dairy or honey."
	case "Jain":
		return "No meat, fish, eggs, root vegetables, onion or garlic."
	case "Keto":
		return "Keep net carbs very low. No meat, fish or eggs."
	case "Gluten-Free":
		return "No wheat, barley, rye or other gluten sources. No meat, fish or eggs."
	default:
		return "No meat, fish or eggs."
	}
}
