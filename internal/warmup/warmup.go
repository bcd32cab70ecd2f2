// Package warmup pre-resolves a batch of journeys so that their segments are
// in the route store before live traffic asks for them.
package warmup

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/passbi/journeyplanner/internal/models"
	"github.com/passbi/journeyplanner/internal/stations"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Planner resolves a journey request
type Planner interface {
	Plan(ctx context.Context, req models.JourneyRequest) (*models.JourneyPlan, error)
}

// Journey is one entry of a warmup file
type Journey struct {
	Route []string `yaml:"route" validate:"min=2,dive,required"`
	Start string   `yaml:"start" validate:"required"`
}

type file struct {
	Journeys []Journey `yaml:"journeys" validate:"required,min=1,dive"`
}

// LoadFile reads a warmup file
func LoadFile(path string, catalogue *stations.Catalogue, loc *time.Location) ([]models.JourneyRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read warmup file: %w", err)
	}
	return Parse(data, catalogue, loc)
}

// Parse decodes and validates a warmup file. Naive start times are read in loc.
//
//	journeys:
//	  - route: [LVJ, LDY]
//	    start: "2030-05-31 14:50"
func Parse(data []byte, catalogue *stations.Catalogue, loc *time.Location) ([]models.JourneyRequest, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode warmup file: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("invalid warmup file: %w", err)
	}

	reqs := make([]models.JourneyRequest, 0, len(f.Journeys))
	for i, j := range f.Journeys {
		codes, err := catalogue.ParseCodes(j.Route)
		if err != nil {
			return nil, fmt.Errorf("journey %d: %w", i, err)
		}
		start, err := models.ParseDateTime(j.Start, loc)
		if err != nil {
			return nil, fmt.Errorf("journey %d: %w", i, err)
		}
		reqs = append(reqs, models.JourneyRequest{Stations: codes, StartAt: start})
	}
	return reqs, nil
}

// Result is the outcome of one warmup journey
type Result struct {
	Request models.JourneyRequest
	Plan    *models.JourneyPlan
	Err     error
}

// Summary counts warmup outcomes
type Summary struct {
	Resolved  int
	CacheHits int
	Failed    int
}

// Run resolves reqs with at most concurrency journeys in flight. A failed
// journey does not stop the others. Results are in request order.
func Run(ctx context.Context, p Planner, reqs []models.JourneyRequest, concurrency int) ([]Result, Summary) {
	results := make([]Result, len(reqs))

	var (
		mu      sync.Mutex
		summary Summary
		g       errgroup.Group
	)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, req := range reqs {
		g.Go(func() error {
			plan, err := p.Plan(ctx, req)
			results[i] = Result{Request: req, Plan: plan, Err: err}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				log.Printf("warmup %v: %v", req.Stations, err)
			case plan.CacheHit():
				summary.CacheHits++
			default:
				summary.Resolved++
			}
			return nil
		})
	}
	g.Wait()

	return results, summary
}
