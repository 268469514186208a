package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"habitcal/internal/middleware"
	"habitcal/internal/model"
	"habitcal/internal/repository"
)

// EventHandler bundles dependencies for calendar event endpoints.
type EventHandler struct {
	Events *repository.EventRepo
}

func NewEventHandler(r *repository.EventRepo) *EventHandler {
	return &EventHandler{Events: r}
}

// eventReq is the create/update payload. EventTime is optional; an empty
// string is treated the same as null.
type eventReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	EventDate   string  `json:"event_date"`
	EventTime   *string `json:"event_time"`
}

const timeLayout = "15:04"

// validate checks required fields and normalizes the optional time.
func (r *eventReq) validate() error {
	if strings.TrimSpace(r.Title) == "" || r.EventDate == "" {
		return errors.New("title and event_date are required")
	}
	if _, err := time.Parse(dateLayout, r.EventDate); err != nil {
		return errors.New("event_date must be YYYY-MM-DD")
	}
	if r.EventTime != nil {
		if *r.EventTime == "" {
			r.EventTime = nil
		} else if _, err := time.Parse(timeLayout, *r.EventTime); err != nil {
			return errors.New("event_time must be HH:MM")
		}
	}
	return nil
}

// Create adds a calendar event for the authenticated user.
func (h *EventHandler) Create(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	event := model.Event{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		EventDate:   req.EventDate,
		EventTime:   req.EventTime,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Events.Create(ctx, &event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}
	return c.JSON(http.StatusCreated, event)
}

// List returns the user's events sorted by (event_date, event_time). The
// month and year query parameters filter to one calendar month and must be
// supplied together; sending exactly one is rejected instead of being
// silently ignored.
func (h *EventHandler) List(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}

	monthStr, yearStr := c.QueryParam("month"), c.QueryParam("year")
	if (monthStr == "") != (yearStr == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "month and year must be supplied together"})
	}
	var month, year int
	if monthStr != "" {
		var err error
		month, err = strconv.Atoi(monthStr)
		if err != nil || month < 1 || month > 12 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "month must be 1-12"})
		}
		year, err = strconv.Atoi(yearStr)
		if err != nil || year < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "year must be a positive number"})
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	events, err := h.Events.ListByUser(ctx, userID, month, year)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	return c.JSON(http.StatusOK, events)
}

// Update fully overwrites an event's fields. Ownership violations answer the
// same 404 as a nonexistent id.
func (h *EventHandler) Update(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	event := model.Event{
		ID:          eventID,
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		EventDate:   req.EventDate,
		EventTime:   req.EventTime,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Events.Update(ctx, &event); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event updated"})
}

// Delete removes an event.
func (h *EventHandler) Delete(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	eventID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Events.Delete(ctx, userID, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "event deleted"})
}
