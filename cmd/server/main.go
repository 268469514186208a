package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"                  // .env loader for local development
	"github.com/labstack/echo/v4"               // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // Echo built-in middleware (CORS)

	"habitcal/internal/config"     // Internal config loader
	"habitcal/internal/database"   // MySQL pool
	"habitcal/internal/handler"    // HTTP handlers
	"habitcal/internal/middleware" // JWT auth and rate limiting
	"habitcal/internal/repository" // Data access layer
	"habitcal/internal/router"     // Route registration
)

func main() {
	_ = godotenv.Load() // load .env when present; real env vars win

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Redis is optional: a nil client turns the rate limiter into a pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable, rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	habits := repository.NewHabitRepo(db)
	events := repository.NewEventRepo(db)

	authH := handler.NewAuthHandler(cfg, users)
	habitH := handler.NewHabitHandler(habits)
	eventH := handler.NewEventHandler(events)

	e := echo.New()
	e.Use(echomw.CORS()) // the SPA client is served from a different origin
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterAPI(e, habitH, eventH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
