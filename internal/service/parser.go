package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/pageza/dishcraft/backend/internal/types"
)

var (
	fencedBlock   = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)

	errNotDishList = errors.New("not an object with a dishes array")
)

// ParseDishes converts raw model text into a dish list. Strategies run in
// order until one yields an object whose "dishes" property is an array:
// the whole text, the body of a fenced code block, the outermost brace span
// (as-is, then without trailing commas), and finally the whole text without
// trailing commas. Failure is reported as a *ParseError holding the raw text.
func ParseDishes(raw string) (*types.DishList, error) {
	attempt := func(text func() (string, bool)) Strategy[*types.DishList] {
		return func(context.Context) (*types.DishList, error) {
			candidate, ok := text()
			if !ok {
				return nil, errNotDishList
			}
			return decodeDishList(candidate)
		}
	}

	list, err := firstSuccess(context.Background(),
		attempt(func() (string, bool) { return raw, true }),
		attempt(func() (string, bool) { return fencedBody(raw) }),
		attempt(func() (string, bool) { return braceSpan(raw) }),
		attempt(func() (string, bool) {
			span, ok := braceSpan(raw)
			return stripTrailingCommas(span), ok
		}),
		attempt(func() (string, bool) { return stripTrailingCommas(raw), true }),
	)
	if err != nil {
		return nil, &ParseError{Raw: raw}
	}
	return list, nil
}

func fencedBody(text string) (string, bool) {
	m := fencedBlock.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func braceSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func stripTrailingCommas(text string) string {
	return trailingComma.ReplaceAllString(text, "$1")
}

// decodeDishList checks the shape before touching any dish field. Elements
// that are not dish objects are dropped; the caller normalizes the rest.
func decodeDishList(text string) (*types.DishList, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &top); err != nil {
		return nil, err
	}
	rawDishes, ok := top["dishes"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(rawDishes), []byte("[")) {
		return nil, errNotDishList
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(rawDishes, &elems); err != nil {
		return nil, err
	}

	list := &types.DishList{Dishes: make([]types.Dish, 0, len(elems))}
	for _, elem := range elems {
		var dish types.Dish
		if err := json.Unmarshal(elem, &dish); err != nil {
			continue
		}
		list.Dishes = append(list.Dishes, dish)
	}
	return list, nil
}
