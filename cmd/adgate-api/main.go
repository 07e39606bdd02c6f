package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"

	"github.com/adgate/adgate-api/internal/config"
	"github.com/adgate/adgate-api/internal/database"
	"github.com/adgate/adgate-api/internal/handlers"
	"github.com/adgate/adgate-api/internal/logging"
	"github.com/adgate/adgate-api/internal/meta"
	"github.com/adgate/adgate-api/internal/middleware"
	"github.com/adgate/adgate-api/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	apiKeyService := services.NewAPIKeyService(db, cfg.RateLimits)
	usageService := services.NewUsageService(db, logger)
	campaignService := services.NewCampaignService(db)

	metaClient := meta.NewClient(cfg.Meta, logger)
	launcher := meta.NewLauncher(metaClient, logger)

	authHandler := handlers.NewAuthHandler(cfg, userService, tokenService, jwtService)
	userHandler := handlers.NewUserHandler(userService)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyService, usageService)
	campaignHandler := handlers.NewCampaignHandler(campaignService, launcher, metaClient, logger)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(driftmw.Recovery())
	app.Use(driftmw.CORSWithConfig(driftmw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(driftmw.BodyParser())

	// Dashboard surface: session JWTs.
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(middleware.Auth(jwtService))

	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	protected.Get("/users/me", userHandler.GetMe)
	protected.Patch("/users/me", userHandler.UpdateMe)

	protected.Post("/keys", apiKeyHandler.Create)
	protected.Get("/keys", apiKeyHandler.List)
	protected.Delete("/keys/:keyId", apiKeyHandler.Revoke)
	protected.Get("/keys/:keyId/usage", apiKeyHandler.Usage)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	// Gateway surface: API keys, rate limited, usage recorded.
	gateway := app.Group("/v1")
	gateway.Use(middleware.APIKeyAuth(apiKeyService))

	gateway.Post("/campaigns", campaignHandler.Create)
	gateway.Get("/campaigns", campaignHandler.List)
	gateway.Get("/campaigns/:id", campaignHandler.Get)
	gateway.Post("/campaigns/:id/launch", campaignHandler.Launch)
	gateway.Post("/campaigns/:id/pause", campaignHandler.Pause)
	gateway.Get("/campaigns/:id/performance", campaignHandler.Performance)

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			_ = tokenService.CleanupExpired(context.Background())
		}
	}()

	// The usage wrapper sits outside the router so it sees the final status
	// code of every response.
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: middleware.WithUsageTracking(usageService, app),
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown did not complete cleanly")
	}
}
