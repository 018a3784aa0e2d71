package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/pageza/dishcraft/backend/internal/types"
)

// EmbeddingDimensions is the width of the recipe search embedding
const EmbeddingDimensions = 8

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	*a = JSONBStringArray{}
	return scanJSON(value, a)
}

// IngredientLines stores a dish's {name, quantity} list as JSONB
type IngredientLines []types.IngredientLine

// Value implements the driver.Valuer interface
func (l IngredientLines) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (l *IngredientLines) Scan(value interface{}) error {
	*l = IngredientLines{}
	return scanJSON(value, l)
}

func scanJSON(value interface{}, dest interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
}

// Recipe is a saved dish
type Recipe struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt     time.Time        `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
	UserID        *uuid.UUID       `gorm:"type:uuid;index" json:"userId,omitempty"`
	DishID        string           `gorm:"size:255" json:"dishId"`
	Title         string           `gorm:"size:255;not null" json:"title"`
	Summary       string           `gorm:"type:text" json:"summary"`
	Servings      int              `json:"servings"`
	PrepTime      string           `gorm:"size:50" json:"prepTime"`
	CookTime      string           `gorm:"size:50" json:"cookTime"`
	TotalTime     string           `gorm:"size:50" json:"totalTime"`
	Difficulty    string           `gorm:"size:20" json:"difficulty"`
	Utensils      JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"utensils"`
	Ingredients   IngredientLines  `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Steps         JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"steps"`
	Nutrition     Nutrition        `gorm:"embedded" json:"nutrition"`
	Allergens     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"allergens"`
	Tips          JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tips"`
	Variations    JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"variations"`
	Tags          JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	ImagePrompt   string           `gorm:"type:text" json:"imagePrompt"`
	Image         string           `gorm:"type:text" json:"image"`
	FallbackImage string           `gorm:"type:text" json:"fallbackImage"`
	Source        string           `gorm:"size:30" json:"source,omitempty"`
	Embedding     pgvector.Vector  `gorm:"type:vector(8)" json:"-"`
}

// BeforeCreate assigns the primary key in Go so every driver behaves the same
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecipeFromDish copies a generated dish into a storable recipe
func RecipeFromDish(d types.Dish) Recipe {
	return Recipe{
		DishID:      d.ID,
		Title:       d.Title,
		Summary:     d.Summary,
		Servings:    int(d.Servings),
		PrepTime:    d.PrepTime,
		CookTime:    d.CookTime,
		TotalTime:   d.TotalTime,
		Difficulty:  d.Difficulty,
		Utensils:    JSONBStringArray(d.Utensils),
		Ingredients: IngredientLines(d.Ingredients),
		Steps:       JSONBStringArray(d.Steps),
		Nutrition: Nutrition{
			Calories: float64(d.Nutrition.Calories),
			Protein:  float64(d.Nutrition.Protein),
			Carbs:    float64(d.Nutrition.Carbs),
			Fat:      float64(d.Nutrition.Fat),
		},
		Allergens:     JSONBStringArray(d.Allergens),
		Tips:          JSONBStringArray(d.Tips),
		Variations:    JSONBStringArray(d.Variations),
		Tags:          JSONBStringArray(d.Tags),
		ImagePrompt:   d.ImagePrompt,
		Image:         d.Image,
		FallbackImage: d.FallbackImage,
	}
}

// SearchText is the text the search embedding is computed from
func (r *Recipe) SearchText() string {
	text := r.Title + " " + r.Summary
	for _, ing := range r.Ingredients {
		text += " " + ing.Name
	}
	for _, tag := range r.Tags {
		text += " " + tag
	}
	return text
}
