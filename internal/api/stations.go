package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/passbi/journeyplanner/internal/stations"
)

// StationsListResponse represents the response for the station catalogue
type StationsListResponse struct {
	Stations []stations.Station `json:"stations"`
	Total    int                `json:"total"`
}

// StationsList handles GET /v1/stations?q=liver&limit=20
func (h *Handler) StationsList(c *fiber.Ctx) error {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))

	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
			if limit > 1000 {
				limit = 1000
			}
		}
	}

	result := []stations.Station{}
	for _, code := range h.stations.Codes() {
		if len(result) >= limit {
			break
		}
		st, _ := h.stations.Get(code)
		if q != "" && !strings.Contains(strings.ToLower(st.Name), q) && strings.ToLower(string(st.Code)) != q {
			continue
		}
		result = append(result, st)
	}

	return c.JSON(StationsListResponse{
		Stations: result,
		Total:    len(result),
	})
}
