package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/adgate/adgate-api/internal/config"
	"github.com/adgate/adgate-api/internal/database"
	"github.com/adgate/adgate-api/internal/models"
	"github.com/adgate/adgate-api/internal/services"
)

func main() {
	if len(os.Args) < 3 || len(os.Args) > 5 {
		fmt.Println("Usage: issue-key <email> <key-name> [tier] [live|test]")
		os.Exit(1)
	}

	email := os.Args[1]
	name := os.Args[2]

	tier := models.TierFree
	if len(os.Args) >= 4 {
		tier = models.Tier(os.Args[3])
		if !models.ValidTier(tier) {
			log.Fatalf("Invalid tier %q: must be free, pro or enterprise", os.Args[3])
		}
	}

	live := false
	if len(os.Args) == 5 {
		switch os.Args[4] {
		case "live":
			live = true
		case "test":
		default:
			log.Fatalf("Invalid mode %q: must be live or test", os.Args[4])
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	userService := services.NewUserService(db)
	user, err := userService.GetByEmail(ctx, email)
	if err != nil {
		log.Fatalf("No user found with email: %s", email)
	}

	apiKeyService := services.NewAPIKeyService(db, cfg.RateLimits)
	key, plainKey, err := apiKeyService.Create(ctx, user.ID, name, tier, live)
	if err != nil {
		log.Fatalf("Failed to create api key: %v", err)
	}

	perMinute, perDay := apiKeyService.EffectiveLimits(key)

	fmt.Printf("Issued key %s for %s\n", key.ID, email)
	fmt.Printf("  tier:   %s (%d/min, %d/day)\n", key.Tier, perMinute, perDay)
	fmt.Printf("  key:    %s\n", plainKey)
	fmt.Println("Store the key now; it cannot be recovered later.")
}
