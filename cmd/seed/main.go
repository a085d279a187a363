// Command seed loads a small demonstration catalog into the database.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/aldermere/storefront/internal"
	"github.com/aldermere/storefront/internal/domain"
	"github.com/aldermere/storefront/internal/service"
	"github.com/aldermere/storefront/internal/store"
)

func run() error {
	ctx := context.Background()

	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	db, err := store.Open(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to open document store: %w", err)
	}
	defer db.Close()

	products, err := store.NewPostgres[*domain.Product](db, store.CollectionProducts)
	if err != nil {
		return fmt.Errorf("failed to initialize products collection: %w", err)
	}

	catalog := service.NewCatalog(products, nil)

	available := true
	fixtures := []domain.CreateProductParams{
		{
			Name:        "Harbor Mist Pour-Over Kettle",
			Description: "Gooseneck kettle with a thermometer built into the lid for repeatable pour-overs.",
			Price:       64.00,
			Category:    "kitchen",
			Brand:       "Aldermere",
			ImageURL:    "https://img.aldermere.example/kettle.jpg",
			Stock:       40,
			Tags:        []string{"coffee", "brewing"},
			Specifications: map[string]string{
				"capacity": "1.0L",
				"material": "stainless steel",
			},
			IsAvailable: &available,
		},
		{
			Name:        "Fjellvang Wool Throw",
			Description: "Heavyweight lambswool throw woven in a herringbone pattern.",
			Price:       119.50,
			Category:    "home",
			Brand:       "Fjellvang",
			ImageURL:    "https://img.aldermere.example/throw.jpg",
			Discount:    10,
			Stock:       25,
			Tags:        []string{"wool", "winter"},
			IsAvailable: &available,
		},
		{
			Name:        "Cascadia Trail Bottle",
			Description: "Vacuum-insulated bottle that keeps drinks cold for 24 hours.",
			Price:       32.00,
			Category:    "outdoor",
			Brand:       "Cascadia",
			ImageURL:    "https://img.aldermere.example/bottle.jpg",
			Stock:       120,
			Tags:        []string{"hiking", "hydration"},
			Specifications: map[string]string{
				"capacity": "750ml",
			},
			IsAvailable: &available,
		},
	}

	for _, params := range fixtures {
		product, err := catalog.Create(ctx, params)
		if err != nil {
			return fmt.Errorf("failed to seed %q: %w", params.Name, err)
		}
		logger.Info("Seeded product", "id", product.ID, "name", product.Name)
	}

	logger.Info("Seed complete", "count", len(fixtures))
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
