package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/unical-app/unical/app/models"
	"github.com/unical-app/unical/internal/pkg/calendarsync"
	"github.com/unical-app/unical/internal/pkg/usercontext"
)

var eventGateway *calendarsync.Gateway

// InitializeEventController wires the mutation gateway into the handlers.
func InitializeEventController(gateway *calendarsync.Gateway) {
	eventGateway = gateway
}

type respondRequest struct {
	AttendeeEmail string `json:"attendee_email"`
	Status        string `json:"status"`
}

// HandleListEvents returns the user's events, optionally bounded by
// ?from=...&to=... (RFC3339).
func HandleListEvents(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid 'from' timestamp"})
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid 'to' timestamp"})
	}

	events, err := eventGateway.ListEvents(userID, from, to)
	if err != nil {
		return syncErrorResponse(c, err)
	}
	if events == nil {
		events = []models.Event{}
	}

	return c.JSON(fiber.Map{"events": events})
}

// HandleGetEvent returns one event.
func HandleGetEvent(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid event id"})
	}

	event, err := eventGateway.GetEvent(userID, eventID)
	if err != nil {
		return syncErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{"event": event})
}

// HandleCreateEvent creates an event, remotely first when it targets a
// connected calendar.
func HandleCreateEvent(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)

	var in calendarsync.EventInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if in.EndTime.Before(in.StartTime) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "End time must not precede start time"})
	}

	event, err := eventGateway.CreateEvent(c.Context(), userID, in)
	if err != nil {
		return syncErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"event": event})
}

// HandleUpdateEvent updates an event.
func HandleUpdateEvent(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid event id"})
	}

	var in calendarsync.EventInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if in.EndTime.Before(in.StartTime) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "End time must not precede start time"})
	}

	event, err := eventGateway.UpdateEvent(c.Context(), userID, eventID, in)
	if err != nil {
		return syncErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{"event": event})
}

// HandleDeleteEvent deletes an event locally and, when it mirrors a remote
// one, on the provider.
func HandleDeleteEvent(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid event id"})
	}

	if err := eventGateway.DeleteEvent(c.Context(), userID, eventID); err != nil {
		return syncErrorResponse(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRespondToEvent records the user's RSVP on an event.
func HandleRespondToEvent(c *fiber.Ctx) error {
	userID := usercontext.GetUserID(c)
	eventID, err := eventIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid event id"})
	}

	var req respondRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.AttendeeEmail == "" {
		req.AttendeeEmail = usercontext.GetUserEmail(c)
	}
	switch req.Status {
	case models.ATTENDEE_ACCEPTED, models.ATTENDEE_DECLINED, models.ATTENDEE_PENDING:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Status must be accepted, declined or pending"})
	}

	event, err := eventGateway.RespondToEvent(c.Context(), userID, eventID, req.AttendeeEmail, req.Status)
	if err != nil {
		return syncErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{"event": event})
}

func eventIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
