// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"strconv"

	"codeberg.org/auisnexus/nexus/internal/models"
	"codeberg.org/auisnexus/nexus/internal/services/events"
	"github.com/labstack/echo/v4"
)

// EventHandlers contains handlers for event browsing, management and enrollment.
type EventHandlers struct {
	service *events.Service
}

func NewEvents(service *events.Service) *EventHandlers {
	return &EventHandlers{service: service}
}

// CreateEventRequest is the request body for creating an event.
type CreateEventRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=2000"`
	Date        string `json:"date" validate:"required"`
	Time        string `json:"time" validate:"required"`
	Venue       string `json:"venue" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=Workshop Seminar Conference Social Other"`
	Capacity    int    `json:"capacity" validate:"required,gt=0"`
	Image       string `json:"image" validate:"omitempty,url"`
}

// UpdateEventRequest is the request body for a partial event update.
// Absent and empty fields keep their current value.
type UpdateEventRequest struct {
	Title       string `json:"title" validate:"max=100"`
	Description string `json:"description" validate:"max=2000"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Venue       string `json:"venue"`
	Category    string `json:"category" validate:"omitempty,oneof=Workshop Seminar Conference Social Other"`
	Capacity    int    `json:"capacity"`
	Status      string `json:"status" validate:"omitempty,oneof=upcoming ongoing completed cancelled"`
	Image       string `json:"image" validate:"omitempty,url"`
}

// PageResponse is one page of the public event listing.
type PageResponse struct {
	Success bool `json:"success"`
	*events.Page
}

// List returns a page of events filtered by the keyword query parameter.
func (h *EventHandlers) List(c echo.Context) error {
	page, err := strconv.Atoi(c.QueryParam("pageNumber"))
	if err != nil {
		page = 1
	}

	result, err := h.service.List(c.Request().Context(), c.QueryParam("keyword"), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, PageResponse{Success: true, Page: result})
}

// Get returns an event with its creator and roster.
func (h *EventHandlers) Get(c echo.Context) error {
	id, err := paramID(c, "id", events.ErrEventNotFound)
	if err != nil {
		return err
	}

	event, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, event)
}

// Mine returns the events the authenticated user is registered for.
func (h *EventHandlers) Mine(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	mine, err := h.service.Mine(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return list(c, mine)
}

// Create stores a new event owned by the authenticated admin.
func (h *EventHandlers) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CreateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	date, err := events.ParseDate(req.Date)
	if err != nil {
		return err
	}

	event, err := h.service.Create(c.Request().Context(), user.ID, events.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Date:        date,
		Time:        req.Time,
		Venue:       req.Venue,
		Category:    models.EventCategory(req.Category),
		Capacity:    req.Capacity,
		Image:       req.Image,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, event)
}

// Update applies a partial update to an event.
func (h *EventHandlers) Update(c echo.Context) error {
	id, err := paramID(c, "id", events.ErrEventNotFound)
	if err != nil {
		return err
	}

	var req UpdateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	params, err := req.params()
	if err != nil {
		return err
	}

	event, err := h.service.Update(c.Request().Context(), id, params)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, event)
}

// Delete removes an event and its roster.
func (h *EventHandlers) Delete(c echo.Context) error {
	id, err := paramID(c, "id", events.ErrEventNotFound)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return message(c, http.StatusOK, "Event removed")
}

// Register adds the authenticated user to the event roster.
func (h *EventHandlers) Register(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", events.ErrEventNotFound)
	if err != nil {
		return err
	}

	if err := h.service.Register(c.Request().Context(), id, user.ID); err != nil {
		return err
	}
	return message(c, http.StatusOK, "Successfully registered for event")
}

// Unregister removes the authenticated user from the event roster.
func (h *EventHandlers) Unregister(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id", events.ErrEventNotFound)
	if err != nil {
		return err
	}

	if err := h.service.Unregister(c.Request().Context(), id, user.ID); err != nil {
		return err
	}
	return message(c, http.StatusOK, "Successfully unregistered from event")
}

func (r *UpdateEventRequest) params() (events.UpdateParams, error) {
	var p events.UpdateParams
	if r.Title != "" {
		p.Title = &r.Title
	}
	if r.Description != "" {
		p.Description = &r.Description
	}
	if r.Date != "" {
		date, err := events.ParseDate(r.Date)
		if err != nil {
			return p, err
		}
		p.Date = &date
	}
	if r.Time != "" {
		p.Time = &r.Time
	}
	if r.Venue != "" {
		p.Venue = &r.Venue
	}
	if r.Category != "" {
		category := models.EventCategory(r.Category)
		p.Category = &category
	}
	if r.Capacity != 0 {
		p.Capacity = &r.Capacity
	}
	if r.Status != "" {
		status := models.EventStatus(r.Status)
		p.Status = &status
	}
	if r.Image != "" {
		p.Image = &r.Image
	}
	return p, nil
}

