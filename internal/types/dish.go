package types

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// IngredientLine is one entry of a dish's ingredient list
type IngredientLine struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// UnmarshalJSON accepts either {"name","quantity"} or a bare string
func (l *IngredientLine) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		l.Name = strings.TrimSpace(str)
		l.Quantity = ""
		return nil
	}

	var obj struct {
		Name     string          `json:"name"`
		Item     string          `json:"item"`
		Quantity json.RawMessage `json:"quantity"`
		Amount   json.RawMessage `json:"amount"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid ingredient format: %w", err)
	}

	l.Name = obj.Name
	if l.Name == "" {
		l.Name = obj.Item
	}
	qty := obj.Quantity
	if len(qty) == 0 {
		qty = obj.Amount
	}
	l.Quantity = rawToString(qty)
	return nil
}

// Nutrition holds the per-serving macro estimate
type Nutrition struct {
	Calories FlexFloat `json:"calories"`
	Protein  FlexFloat `json:"protein"`
	Carbs    FlexFloat `json:"carbs"`
	Fat      FlexFloat `json:"fat"`
}

var leadingNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// FlexFloat can handle both number and string values such as "350 kcal"
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexFloat(num)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		match := leadingNumber.FindString(str)
		if match == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", str, err)
		}
		*f = FlexFloat(v)
		return nil
	}

	if string(data) == "null" {
		*f = 0
		return nil
	}
	return fmt.Errorf("invalid numeric format")
}

// FlexInt can handle both number and string values for counts like servings
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	var f FlexFloat
	if err := f.UnmarshalJSON(data); err != nil {
		return err
	}
	*i = FlexInt(int(f))
	return nil
}

// StringList tolerates a single string where an array is expected
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if strings.TrimSpace(str) == "" {
			*s = StringList{}
		} else {
			*s = StringList{str}
		}
		return nil
	}

	if string(data) == "null" {
		*s = StringList{}
		return nil
	}
	return fmt.Errorf("invalid string list format")
}

// Dish is one generated recipe
type Dish struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Summary       string           `json:"summary"`
	Servings      FlexInt          `json:"servings"`
	PrepTime      string           `json:"prepTime"`
	CookTime      string           `json:"cookTime"`
	TotalTime     string           `json:"totalTime"`
	Difficulty    string           `json:"difficulty"`
	Utensils      StringList       `json:"utensils"`
	Ingredients   []IngredientLine `json:"ingredients"`
	Steps         StringList       `json:"steps"`
	Nutrition     Nutrition        `json:"nutrition"`
	Allergens     StringList       `json:"allergens"`
	Tips          StringList       `json:"tips"`
	Variations    StringList       `json:"variations"`
	Tags          StringList       `json:"tags"`
	ImagePrompt   string           `json:"imagePrompt"`
	Image         string           `json:"image,omitempty"`
	FallbackImage string           `json:"fallbackImage,omitempty"`
	CreatedAt     *time.Time       `json:"createdAt,omitempty"`
}

// DishList is the top-level shape both the model and the mock generator produce
type DishList struct {
	Dishes []Dish `json:"dishes"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases text and collapses everything else into dashes
func Slugify(text string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(text), "-"), "-")
}

func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return strings.TrimSpace(string(raw))
}
