package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/passbi/journeyplanner/internal/bootstrap"
	"github.com/passbi/journeyplanner/internal/config"
	"github.com/passbi/journeyplanner/internal/executor"
	"github.com/passbi/journeyplanner/internal/models"
	"github.com/passbi/journeyplanner/internal/routing"
	"github.com/passbi/journeyplanner/internal/warmup"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	journeysPath := flag.String("journeys", "", "path to the YAML list of journeys to resolve (required)")
	concurrency := flag.Int("concurrency", 4, "journeys resolved in parallel")
	initDB := flag.Bool("init-db", false, "create the route_segment table and index first")
	flag.Parse()

	if *journeysPath == "" {
		fmt.Println("Usage: journeyplanner-warmup --journeys=<journeys.yaml> [--config=config.yml] [--concurrency=4] [--init-db]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	catalogue, err := bootstrap.LoadStations(cfg)
	if err != nil {
		log.Fatalf("Failed to load stations: %v", err)
	}

	reqs, err := warmup.LoadFile(*journeysPath, catalogue, cfg.Location)
	if err != nil {
		log.Fatalf("Failed to load journeys: %v", err)
	}
	log.Printf("Loaded %d journeys from %s", len(reqs), *journeysPath)

	routeStore, _, closeStore, err := bootstrap.OpenStore(cfg, *initDB)
	if err != nil {
		log.Fatalf("Failed to open route store: %v", err)
	}
	defer closeStore()

	planner := routing.NewPlanner(routeStore, bootstrap.NewResolver(cfg),
		routing.WithPool(executor.New("warmup", cfg.Planner.Workers)),
		routing.WithMaxWait(cfg.Planner.MaxWait),
	)

	start := time.Now()
	results, summary := warmup.Run(context.Background(), planner, reqs, *concurrency)

	for _, r := range results {
		if r.Err != nil {
			continue
		}
		log.Printf("%v arrives %s", r.Request.Stations, r.Plan.ArrivalAt.In(cfg.Location).Format(models.DateTimeFormat))
	}

	log.Printf("Warmup finished in %s: %d resolved, %d already cached, %d failed",
		time.Since(start).Round(time.Millisecond), summary.Resolved, summary.CacheHits, summary.Failed)

	if summary.Failed > 0 {
		closeStore()
		os.Exit(1)
	}
}
