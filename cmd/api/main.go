package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/passbi/journeyplanner/internal/api"
	"github.com/passbi/journeyplanner/internal/bootstrap"
	"github.com/passbi/journeyplanner/internal/cache"
	"github.com/passbi/journeyplanner/internal/config"
	"github.com/passbi/journeyplanner/internal/executor"
	"github.com/passbi/journeyplanner/internal/middleware"
	"github.com/passbi/journeyplanner/internal/routing"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	initDB := flag.Bool("init-db", false, "create the route_segment table and index before serving")
	flag.Parse()

	log.Println("Starting journey planner API server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	catalogue, err := bootstrap.LoadStations(cfg)
	if err != nil {
		log.Fatalf("Failed to load stations: %v", err)
	}
	log.Printf("✓ Station catalogue loaded (%d stations)", catalogue.Len())

	routeStore, checks, closeStore, err := bootstrap.OpenStore(cfg, *initDB)
	if err != nil {
		log.Fatalf("Failed to open route store: %v", err)
	}
	defer closeStore()
	log.Printf("✓ Route store ready (%s)", cfg.Store.Backend)

	resolver := bootstrap.NewResolver(cfg)
	log.Printf("✓ Upstream resolver ready (%s)", cfg.Upstream.Mode)

	pool := executor.New("planner", cfg.Planner.Workers)
	planner := routing.NewPlanner(routeStore, resolver,
		routing.WithPool(pool),
		routing.WithMaxWait(cfg.Planner.MaxWait),
	)

	app := fiber.New(fiber.Config{
		AppName:      "Journey Planner API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: api.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	if cfg.RateLimit.Enabled {
		rdb, err := cache.GetClient()
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cache.Close()
		app.Use(middleware.RateLimitMiddleware(rdb, middleware.RateLimits{
			PerSecond: cfg.RateLimit.PerSecond,
			PerDay:    cfg.RateLimit.PerDay,
		}))
		checks = append(checks, api.HealthCheck{Name: "rate_limit_redis", Check: cache.HealthCheck})
		log.Println("✓ Rate limiting enabled")
	}

	api.NewHandler(planner, catalogue, cfg.Location, checks...).Register(app)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "endpoint not found",
		})
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
		stats := pool.Stats()
		log.Printf("Planner pool: %d tasks completed", stats.Completed)
	}()

	log.Printf("🚀 Server listening on http://localhost%s", addr)
	log.Printf("📍 Journey plan: http://localhost%s/v1/journey-plan?route=LVJ,LDY&start=YYYY-MM-DD%%20HH:MM", addr)
	log.Printf("❤️  Health check: http://localhost%s/health", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
