package api

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/passbi/journeyplanner/internal/routing"
	"github.com/passbi/journeyplanner/internal/stations"
	"github.com/passbi/journeyplanner/internal/upstream"
)

// StatusFor maps a handler error to its HTTP status code
func StatusFor(err error) int {
	var (
		fiberErr *fiber.Error
		waitErr  *routing.ExcessiveWaitError
		notFound *upstream.RouteNotFoundError
	)

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, stations.ErrUnknownStation),
		errors.Is(err, routing.ErrTooFewStations),
		errors.Is(err, routing.ErrPastDeparture):
		return fiber.StatusBadRequest
	case errors.As(err, &waitErr):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.Is(err, upstream.ErrUpstream):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders errors returned from handlers as {"error": "..."}.
// Internal errors are logged in full but not echoed to the client.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := StatusFor(err)

	log.Printf("Error: %s %s: %v", c.Method(), c.Path(), err)

	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		msg = "internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error": msg,
	})
}
