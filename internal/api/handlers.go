package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/passbi/journeyplanner/internal/models"
	"github.com/passbi/journeyplanner/internal/stations"
)

// ErrBadRequest marks malformed request bodies and parameters
var ErrBadRequest = errors.New("bad request")

// Planner resolves a journey request
type Planner interface {
	Plan(ctx context.Context, req models.JourneyRequest) (*models.JourneyPlan, error)
}

// Handler serves the journey planning endpoints
type Handler struct {
	planner  Planner
	stations *stations.Catalogue
	loc      *time.Location
	validate *validator.Validate
	checks   []HealthCheck
}

// NewHandler creates a handler. loc is used for naive start times and for
// formatting arrival times.
func NewHandler(p Planner, catalogue *stations.Catalogue, loc *time.Location, checks ...HealthCheck) *Handler {
	return &Handler{
		planner:  p,
		stations: catalogue,
		loc:      loc,
		validate: validator.New(),
		checks:   checks,
	}
}

// Register mounts the routes on app
func (h *Handler) Register(app fiber.Router) {
	app.Get("/", h.Ping)
	app.Get("/health", h.Health)
	app.Post("/v1/journey-plan", h.PostJourneyPlan)
	app.Get("/v1/journey-plan", h.GetJourneyPlan)
	app.Get("/v1/stations", h.StationsList)
}

// JourneyPlanRequest is the POST /v1/journey-plan body
type JourneyPlanRequest struct {
	RouteCodes    []string `json:"routeCodes" validate:"dive,required"`
	StartDateTime string   `json:"startDateTime" validate:"required"`
}

// JourneyPlanResponse is returned for a resolved journey
type JourneyPlanResponse struct {
	ArrivalTime string `json:"arrivalTime"`
}

// PostJourneyPlan handles POST /v1/journey-plan
func (h *Handler) PostJourneyPlan(c *fiber.Ctx) error {
	var body JourneyPlanRequest
	if err := c.BodyParser(&body); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", ErrBadRequest, err)
	}
	if err := h.validate.Struct(body); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	return h.plan(c, body.RouteCodes, body.StartDateTime)
}

// GetJourneyPlan handles GET /v1/journey-plan?route=AAA,BBB&start=2030-05-31 14:50
func (h *Handler) GetJourneyPlan(c *fiber.Ctx) error {
	route := c.Query("route")
	start := c.Query("start")
	if route == "" || start == "" {
		return fmt.Errorf("%w: missing required parameters: route and start", ErrBadRequest)
	}

	return h.plan(c, strings.Split(route, ","), start)
}

func (h *Handler) plan(c *fiber.Ctx, rawCodes []string, rawStart string) error {
	codes, err := h.stations.ParseCodes(rawCodes)
	if err != nil {
		return err
	}

	start, err := h.parseStart(rawStart)
	if err != nil {
		return err
	}

	plan, err := h.planner.Plan(c.UserContext(), models.JourneyRequest{
		Stations: codes,
		StartAt:  start,
	})
	if err != nil {
		return err
	}

	for _, leg := range plan.Legs {
		log.Printf("leg %s-%s %s -> %s (%s)", leg.From, leg.To,
			leg.DepartureAt.In(h.loc).Format(models.DateTimeFormat),
			leg.ArrivalAt.In(h.loc).Format(models.DateTimeFormat), leg.Source)
	}

	c.Set("X-Cache-Hit", strconv.FormatBool(plan.CacheHit()))
	return c.JSON(JourneyPlanResponse{
		ArrivalTime: plan.ArrivalAt.In(h.loc).Format(models.DateTimeFormat),
	})
}

// parseStart reads naive timestamps in the handler's location
func (h *Handler) parseStart(raw string) (time.Time, error) {
	t, err := models.ParseDateTime(raw, h.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid startDateTime: %v", ErrBadRequest, err)
	}
	return t, nil
}

// Ping handles GET /
func (h *Handler) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ping": "pong"})
}
