package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/passbi/journeyplanner/internal/models"
	"github.com/passbi/journeyplanner/internal/routing"
	"github.com/passbi/journeyplanner/internal/stations"
	"github.com/passbi/journeyplanner/internal/store"
	"github.com/passbi/journeyplanner/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2030-05-31 is in BST, so London wall clock is UTC+1
var testNow = time.Date(2030, 5, 31, 9, 0, 0, 0, time.UTC)

type plannerFunc func(ctx context.Context, req models.JourneyRequest) (*models.JourneyPlan, error)

func (f plannerFunc) Plan(ctx context.Context, req models.JourneyRequest) (*models.JourneyPlan, error) {
	return f(ctx, req)
}

func london(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	return loc
}

func newTestApp(t *testing.T, p Planner, checks ...HealthCheck) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	NewHandler(p, stations.Default(), london(t), checks...).Register(app)
	return app
}

func newStubPlanner(wait time.Duration) *routing.Planner {
	stub := upstream.NewStub()
	stub.Wait = wait
	return routing.NewPlanner(store.NewMemory(), stub,
		routing.WithClock(func() time.Time { return testNow }))
}

func postJSON(t *testing.T, app *fiber.App, body string) (*http.Response, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/journey-plan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, map[string]string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]string
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp, out
}

func TestPostJourneyPlan(t *testing.T) {
	app := newTestApp(t, newStubPlanner(5*time.Minute))
	body := `{"routeCodes": ["LVJ", "LDY"], "startDateTime": "2030-05-31 14:50"}`

	resp, out := postJSON(t, app, body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "2030-05-31 15:05", out["arrivalTime"])
	assert.Equal(t, "false", resp.Header.Get("X-Cache-Hit"))

	// Identical request is served from the route store
	resp, out = postJSON(t, app, body)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "2030-05-31 15:05", out["arrivalTime"])
	assert.Equal(t, "true", resp.Header.Get("X-Cache-Hit"))
}

func TestGetJourneyPlan(t *testing.T) {
	app := newTestApp(t, newStubPlanner(5*time.Minute))

	q := url.Values{}
	q.Set("route", "eus, mkc,CRE")
	q.Set("start", "2030-05-31T13:50:00Z")
	req := httptest.NewRequest(http.MethodGet, "/v1/journey-plan?"+q.Encode(), nil)

	resp, out := do(t, app, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	// 13:50Z is 14:50 BST, plus two 15 minute legs
	assert.Equal(t, "2030-05-31 15:20", out["arrivalTime"])
}

func TestParseStart(t *testing.T) {
	h := NewHandler(nil, stations.Default(), london(t))
	want := time.Date(2030, 5, 31, 13, 50, 0, 0, time.UTC)

	for _, raw := range []string{
		"2030-05-31 14:50",
		"2030-05-31 14:50:00",
		"2030-05-31T14:50",
		"2030-05-31T14:50:00",
		"2030-05-31T14:50:00+01:00",
		"2030-05-31T13:50:00Z",
		" 2030-05-31 14:50 ",
	} {
		t.Run(raw, func(t *testing.T) {
			got, err := h.parseStart(raw)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}

	_, err := h.parseStart("31/05/2030 14:50")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestJourneyPlanErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		planner Planner
		status  int
		message string
	}{
		{
			name:    "Unknown station",
			body:    `{"routeCodes": ["LVJ", "XXX"], "startDateTime": "2030-05-31 14:50"}`,
			status:  fiber.StatusBadRequest,
			message: "unknown station code",
		},
		{
			name:    "Single station",
			body:    `{"routeCodes": ["LVJ"], "startDateTime": "2030-05-31 14:50"}`,
			status:  fiber.StatusBadRequest,
			message: "at minimum two train station codes",
		},
		{
			name:    "Start in the past",
			body:    `{"routeCodes": ["LVJ", "LDY"], "startDateTime": "2030-05-31 09:59"}`,
			status:  fiber.StatusBadRequest,
			message: "should be in the future",
		},
		{
			name:    "Malformed timestamp",
			body:    `{"routeCodes": ["LVJ", "LDY"], "startDateTime": "tomorrow"}`,
			status:  fiber.StatusBadRequest,
			message: "invalid startDateTime",
		},
		{
			name:    "Missing start",
			body:    `{"routeCodes": ["LVJ", "LDY"]}`,
			status:  fiber.StatusBadRequest,
			message: "StartDateTime",
		},
		{
			name:    "Empty station code",
			body:    `{"routeCodes": ["LVJ", ""], "startDateTime": "2030-05-31 14:50"}`,
			status:  fiber.StatusBadRequest,
			message: "RouteCodes",
		},
		{
			name:    "Malformed JSON",
			body:    `{"routeCodes": [`,
			status:  fiber.StatusBadRequest,
			message: "invalid JSON body",
		},
		{
			name:    "Excessive wait",
			body:    `{"routeCodes": ["LVJ", "LDY"], "startDateTime": "2030-05-31 14:50"}`,
			planner: newStubPlanner(61 * time.Minute),
			status:  fiber.StatusUnprocessableEntity,
			message: "max waiting time at a station is 60 minutes",
		},
		{
			name: "Route not found",
			body: `{"routeCodes": ["LVJ", "LDY"], "startDateTime": "2030-05-31 14:50"}`,
			planner: plannerFunc(func(context.Context, models.JourneyRequest) (*models.JourneyPlan, error) {
				return nil, &upstream.RouteNotFoundError{Origin: "LVJ", Destination: "LDY"}
			}),
			status:  fiber.StatusNotFound,
			message: "route from LVJ to LDY not found",
		},
		{
			name: "Upstream failure",
			body: `{"routeCodes": ["LVJ", "LDY"], "startDateTime": "2030-05-31 14:50"}`,
			planner: plannerFunc(func(context.Context, models.JourneyRequest) (*models.JourneyPlan, error) {
				return nil, errors.Join(upstream.ErrUpstream, &upstream.HTTPError{Status: "503 Service Unavailable", StatusCode: 503})
			}),
			status:  fiber.StatusBadGateway,
			message: "upstream route lookup failed",
		},
		{
			name: "Store failure is not echoed",
			body: `{"routeCodes": ["LVJ", "LDY"], "startDateTime": "2030-05-31 14:50"}`,
			planner: plannerFunc(func(context.Context, models.JourneyRequest) (*models.JourneyPlan, error) {
				return nil, errors.New("route store write: disk I/O error")
			}),
			status:  fiber.StatusInternalServerError,
			message: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.planner
			if p == nil {
				p = newStubPlanner(5 * time.Minute)
			}
			app := newTestApp(t, p)

			resp, out := postJSON(t, app, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, out["error"], tt.message)
		})
	}
}

func TestGetJourneyPlanMissingParams(t *testing.T) {
	app := newTestApp(t, newStubPlanner(5*time.Minute))

	resp, out := do(t, app, httptest.NewRequest(http.MethodGet, "/v1/journey-plan?route=LVJ,LDY", nil))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "missing required parameters")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Fiber error", fiber.ErrMethodNotAllowed, fiber.StatusMethodNotAllowed},
		{"Wrapped too few stations", errors.Join(errors.New("ctx"), routing.ErrTooFewStations), fiber.StatusBadRequest},
		{"Past departure", routing.ErrPastDeparture, fiber.StatusBadRequest},
		{"Unknown station", stations.ErrUnknownStation, fiber.StatusBadRequest},
		{"Excessive wait", &routing.ExcessiveWaitError{MaxWait: time.Hour}, fiber.StatusUnprocessableEntity},
		{"Not found", &upstream.RouteNotFoundError{}, fiber.StatusNotFound},
		{"Upstream", upstream.ErrUpstream, fiber.StatusBadGateway},
		{"Other", context.Canceled, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestPing(t *testing.T) {
	app := newTestApp(t, nil)
	resp, out := do(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", out["ping"])
}

func TestHealth(t *testing.T) {
	ok := HealthCheck{Name: "route_store", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("Healthy", func(t *testing.T) {
		app := newTestApp(t, nil, ok)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var out struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "healthy", out.Status)
		assert.Equal(t, "ok", out.Checks["route_store"])
	})

	t.Run("Unhealthy", func(t *testing.T) {
		app := newTestApp(t, nil, ok, down)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)

		var out struct {
			Status string            `json:"status"`
			Checks map[string]string `json:"checks"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "unhealthy", out.Status)
		assert.Equal(t, "connection refused", out.Checks["redis"])
	})
}

func TestStationsList(t *testing.T) {
	app := newTestApp(t, nil)

	tests := []struct {
		query string
		codes []models.StationCode
	}{
		{"?q=liverpool", []models.StationCode{"LIV", "LST", "LVJ"}},
		{"?q=ldy", []models.StationCode{"LDY"}},
		{"?q=liverpool&limit=1", []models.StationCode{"LIV"}},
		{"?q=atlantis", []models.StationCode{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/stations"+tt.query, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			var out StationsListResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			got := make([]models.StationCode, 0, len(out.Stations))
			for _, s := range out.Stations {
				got = append(got, s.Code)
			}
			assert.Equal(t, tt.codes, got)
			assert.Equal(t, len(tt.codes), out.Total)
		})
	}

	t.Run("Whole catalogue", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/stations", nil), -1)
		require.NoError(t, err)

		var out StationsListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, stations.Default().Len(), out.Total)
	})
}
