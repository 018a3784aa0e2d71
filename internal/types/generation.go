package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Calorie targets for the fixed calorie ranges
const (
	LowCalories    = 300
	MediumCalories = 500
	HighCalories   = 750

	// MinIngredients is the smallest ingredient list a request may carry
	MinIngredients = 3
)

// Source marks where the dishes of a response came from
type Source string

const (
	SourceModel         Source = "gemini"
	SourceMock          Source = "mock"
	SourceModelFallback Source = "gemini-fallback"
)

// GenerationRequest represents the request body for POST /api/generate
type GenerationRequest struct {
	Diet           string   `json:"diet" validate:"required,oneof=Vegan Veg Non-Veg Keto Jain Gluten-Free"`
	MealType       string   `json:"mealType" validate:"required,oneof=Breakfast Lunch Dinner Snack"`
	CalorieRange   string   `json:"calorieRange" validate:"required,oneof=Low Medium High Custom"`
	CustomCalories *int     `json:"customCalories,omitempty" validate:"required_if=CalorieRange Custom,omitempty,gt=0"`
	Fasting        bool     `json:"fasting"`
	Ingredients    []string `json:"ingredients"`
	Servings       int      `json:"servings,omitempty" validate:"gte=1"`
	SpiceLevel     string   `json:"spiceLevel,omitempty" validate:"oneof=Mild Medium Hot"`
}

// ValidationError carries a message that is safe to show to the caller
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = newValidator()

// newValidator reports fields under their JSON names so errors match the request body
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ApplyDefaults fills the optional fields the way the form does
func (r *GenerationRequest) ApplyDefaults() {
	if r.Servings == 0 {
		r.Servings = 1
	}
	if r.SpiceLevel == "" {
		r.SpiceLevel = "Medium"
	}
}

// Validate checks the request. The ingredient count is checked first so the
// caller always sees the same message for an under-specified pantry.
func (r *GenerationRequest) Validate() error {
	if len(r.Ingredients) < MinIngredients {
		return &ValidationError{Message: "Select at least 3 ingredients"}
	}
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing) == "" {
			return &ValidationError{Field: "ingredients", Message: "ingredient names must not be blank"}
		}
	}

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			}
		}
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// CalorieTarget resolves the numeric calorie goal for the request
func (r *GenerationRequest) CalorieTarget() int {
	switch r.CalorieRange {
	case "Custom":
		if r.CustomCalories != nil {
			return *r.CustomCalories
		}
		return MediumCalories
	case "Low":
		return LowCalories
	case "Medium":
		return MediumCalories
	default:
		return HighCalories
	}
}

// GenerationResponse represents the response body for POST /api/generate
type GenerationResponse struct {
	Dishes []Dish `json:"dishes"`
	Source Source `json:"source"`
	Raw    string `json:"raw,omitempty"`
}
