package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/unical-app/unical/internal/pkg/calendarsync"
)

// syncErrorResponse maps sync engine errors onto API status codes.
func syncErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Not found"})
	case errors.Is(err, calendarsync.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Resource belongs to another user"})
	case errors.Is(err, calendarsync.ErrAttendeeNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Attendee not on the event"})
	case errors.Is(err, calendarsync.ErrSyncInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflict", "message": "Sync already running for this account"})
	case errors.Is(err, calendarsync.ErrCredential):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "bad_gateway", "message": "Provider credentials expired, reconnect the account"})
	case errors.Is(err, calendarsync.ErrUnknownProvider):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown provider"})
	case errors.Is(err, calendarsync.ErrProvider):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "bad_gateway", "message": "Provider request failed"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": err.Error()})
	}
}

// parseTimeQuery reads an optional RFC3339 query parameter.
func parseTimeQuery(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
