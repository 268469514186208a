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
	"habitcal/internal/queue"
	"habitcal/internal/repository"
	queue_publisher "habitcal/internal/service"
)

// HabitHandler bundles dependencies for habit endpoints. Every handler runs
// behind JWTAuth and scopes its repository call to the resolved user id.
type HabitHandler struct {
	Habits *repository.HabitRepo
}

func NewHabitHandler(r *repository.HabitRepo) *HabitHandler {
	return &HabitHandler{Habits: r}
}

// habitReq is the create/update payload. Frequency accepts any string on the
// wire and is normalized to daily/weekly/monthly (default daily) before
// storage. IsCompleted is a pointer so that update can tell "omitted" from
// "set to false": omitted preserves the stored flag.
type habitReq struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	StartDate   string  `json:"start_date"`
	Frequency   string  `json:"frequency"`
	IsCompleted *bool   `json:"is_completed"`
}

type toggleReq struct {
	Date string `json:"date"`
}

const dateLayout = "2006-01-02"

// validate checks required fields and the date format shared by create and
// update.
func (r *habitReq) validate() error {
	if strings.TrimSpace(r.Title) == "" || r.StartDate == "" {
		return errors.New("title and start_date are required")
	}
	if _, err := time.Parse(dateLayout, r.StartDate); err != nil {
		return errors.New("start_date must be YYYY-MM-DD")
	}
	return nil
}

// Create adds a new habit for the authenticated user.
func (h *HabitHandler) Create(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	var req habitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	habit := model.Habit{
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartDate:   req.StartDate,
		Frequency:   model.NormalizeFrequency(req.Frequency),
		IsCompleted: req.IsCompleted != nil && *req.IsCompleted,
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Habits.Create(ctx, &habit); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create habit failed"})
	}
	return c.JSON(http.StatusCreated, habit)
}

// List returns all habits of the authenticated user, newest first, each with
// its full completed_dates set.
func (h *HabitHandler) List(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	habits, err := h.Habits.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list habits failed"})
	}
	return c.JSON(http.StatusOK, habits)
}

// Update fully overwrites a habit's fields; an omitted is_completed keeps the
// stored value. A habit that does not exist and a habit owned by someone else
// answer identically with 404.
func (h *HabitHandler) Update(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	habitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
	}
	var req habitReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := req.validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	habit := model.Habit{
		ID:          habitID,
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		StartDate:   req.StartDate,
		Frequency:   model.NormalizeFrequency(req.Frequency),
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Habits.Update(ctx, &habit, req.IsCompleted); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update habit failed"})
	}
	return c.JSON(http.StatusOK, habit)
}

// Delete removes a habit and, with it, every completion record it owns.
func (h *HabitHandler) Delete(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	habitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Habits.Delete(ctx, userID, habitID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete habit failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "habit deleted"})
}

// Toggle flips the completion mark for one date, defaulting to today on the
// server clock. The is_completed field in the response reports only the
// transition this call performed: true when the date was just marked, false
// when it was just un-marked.
func (h *HabitHandler) Toggle(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing token"})
	}
	habitID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
	}
	var req toggleReq
	_ = c.Bind(&req) // body is optional
	date := req.Date
	if date == "" {
		date = time.Now().UTC().Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	res, err := h.Habits.Toggle(ctx, userID, habitID, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "habit not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "toggle habit failed"})
	}

	if res.Inserted {
		// Fire-and-forget: a broker outage must not fail the toggle.
		_ = queue_publisher.PublishHabitCompleted(ctx, queue.HabitCompletedEvent{
			HabitID:          res.Habit.ID,
			UserID:           userID,
			Title:            res.Habit.Title,
			Frequency:        res.Habit.Frequency,
			CompletionDate:   date,
			TotalCompletions: len(res.CompletedDates),
			CompletedAt:      time.Now().UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":         true,
		"completed_dates": res.CompletedDates,
		"is_completed":    res.Inserted,
	})
}
