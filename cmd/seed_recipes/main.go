package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/dishcraft/backend/config"
	"github.com/pageza/dishcraft/backend/internal/database"
	"github.com/pageza/dishcraft/backend/internal/logging"
	"github.com/pageza/dishcraft/backend/internal/service"
	"github.com/pageza/dishcraft/backend/internal/types"
)

// seedPantries are the ingredient selections the seed requests rotate through
var seedPantries = [][]string{
	{"Potato", "Peanuts", "Cumin", "Green Chilli"},
	{"Paneer", "Spinach", "Tomato", "Garlic"},
	{"Chicken", "Yogurt", "Ginger", "Onion"},
	{"Rice", "Moong Dal", "Turmeric", "Ghee"},
	{"Sabudana", "Peanuts", "Potato", "Curry Leaves"},
	{"Tofu", "Bell Pepper", "Soy Sauce", "Broccoli"},
}

var (
	seedDiets = []string{"Vegan", "Veg", "Non-Veg", "Keto", "Jain", "Gluten-Free"}
	seedMeals = []string{"Breakfast", "Lunch", "Dinner", "Snack"}
)

func main() {
	batches := flag.Int("batches", len(seedDiets)*len(seedMeals), "Number of three-dish batches to save")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db); err != nil {
		logger.Fatal("failed to apply migrations", zap.Error(err))
	}

	generator := service.NewMockGenerator()
	recipes := service.NewRecipeService(db, service.HashEmbedder{})

	saved := 0
	for i := range *batches {
		req := seedRequest(i)
		if err := req.Validate(); err != nil {
			logger.Warn("skipping invalid seed request", zap.Int("batch", i), zap.Error(err))
			continue
		}

		list := generator.Generate(req)
		for j := range list.Dishes {
			list.Dishes[j].Image = service.PlaceholderURL(list.Dishes[j].Title)
			list.Dishes[j].FallbackImage = service.FallbackImageURL(list.Dishes[j].Title)
		}

		rows, err := recipes.SaveDishes(ctx, list.Dishes, nil)
		if err != nil {
			logger.Error("failed to save batch", zap.Int("batch", i), zap.Error(err))
			continue
		}
		saved += len(rows)
		logger.Info("seeded batch",
			zap.Int("batch", i),
			zap.String("diet", req.Diet),
			zap.String("meal_type", req.MealType),
			zap.Int("recipes", len(rows)))
	}

	logger.Info("seeding finished", zap.Int("recipes", saved))
}

func seedRequest(i int) *types.GenerationRequest {
	req := &types.GenerationRequest{
		Diet:         seedDiets[i%len(seedDiets)],
		MealType:     seedMeals[(i/len(seedDiets))%len(seedMeals)],
		CalorieRange: []string{"Low", "Medium", "High"}[i%3],
		Fasting:      i%5 == 0,
		Ingredients:  seedPantries[i%len(seedPantries)],
		Servings:     1 + i%4,
	}
	req.ApplyDefaults()
	return req
}
