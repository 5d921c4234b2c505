// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package events implements event management and roster enrollment.
package events

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"codeberg.org/auisnexus/nexus/internal/models"
	"codeberg.org/auisnexus/nexus/internal/repository"
	"github.com/microcosm-cc/bluemonday"
)

// PageSize is the number of events per listing page.
const PageSize = 10

// ErrEventNotFound is returned for unknown or malformed event ids.
var ErrEventNotFound = apperr.New(apperr.KindNotFound, "Event not found")

type Service struct {
	repo   *repository.Repository
	policy *bluemonday.Policy
}

func NewService(repo *repository.Repository) *Service {
	return &Service{
		repo:   repo,
		policy: bluemonday.StrictPolicy(),
	}
}

// CreateParams holds the fields of a new event.
type CreateParams struct {
	Title       string
	Description string
	Date        time.Time
	Time        string
	Venue       string
	Category    models.EventCategory
	Capacity    int
	Image       string
}

// UpdateParams holds a partial event update. Nil fields are left unchanged.
type UpdateParams struct {
	Title       *string
	Description *string
	Date        *time.Time
	Time        *string
	Venue       *string
	Category    *models.EventCategory
	Capacity    *int
	Status      *models.EventStatus
	Image       *string
}

// Page is one page of an event listing.
type Page struct {
	Events []models.EventListing `json:"events"`
	Page   int                   `json:"page"`
	Pages  int                   `json:"pages"`
	Total  int64                 `json:"total"`
}

// ParseDate accepts an RFC 3339 timestamp or a plain YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, apperr.New(apperr.KindValidation, "Please add a valid date")
	}
	return t, nil
}

// Create stores a new upcoming event owned by createdBy.
func (s *Service) Create(ctx context.Context, createdBy int64, params CreateParams) (*models.Event, error) {
	event := &models.Event{
		Title:       s.clean(params.Title),
		Description: s.clean(params.Description),
		Date:        params.Date.UTC(),
		Time:        s.clean(params.Time),
		Venue:       s.clean(params.Venue),
		Category:    params.Category,
		Capacity:    params.Capacity,
		Image:       strings.TrimSpace(params.Image),
		Status:      models.StatusUpcoming,
		CreatedBy:   createdBy,
	}

	if err := validate(event); err != nil {
		return nil, err
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	slog.InfoContext(ctx, "event_created", "event_id", event.ID, "user_id", createdBy)
	return event, nil
}

// Update applies a partial update. A capacity below the current roster size
// rejects the whole update.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*models.Event, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	if params.Title != nil {
		event.Title = s.clean(*params.Title)
	}
	if params.Description != nil {
		event.Description = s.clean(*params.Description)
	}
	if params.Date != nil {
		event.Date = params.Date.UTC()
	}
	if params.Time != nil {
		event.Time = s.clean(*params.Time)
	}
	if params.Venue != nil {
		event.Venue = s.clean(*params.Venue)
	}
	if params.Category != nil {
		event.Category = *params.Category
	}
	if params.Capacity != nil {
		event.Capacity = *params.Capacity
	}
	if params.Status != nil {
		event.Status = *params.Status
	}
	if params.Image != nil {
		event.Image = strings.TrimSpace(*params.Image)
	}

	if err := validate(event); err != nil {
		return nil, err
	}
	if event.Capacity < event.RegisteredCount {
		return nil, apperr.ErrInvalidCapacity
	}

	// the repository re-checks capacity against the roster inside the UPDATE
	if err := s.repo.UpdateEvent(ctx, event); err != nil {
		return nil, mapError(err)
	}

	slog.InfoContext(ctx, "event_updated", "event_id", event.ID)
	return event, nil
}

// Delete removes an event together with its roster.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		return mapError(err)
	}
	slog.InfoContext(ctx, "event_deleted", "event_id", id)
	return nil
}

// Get returns an event with creator and roster.
func (s *Service) Get(ctx context.Context, id int64) (*models.EventDetail, error) {
	event, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}

	roster, err := s.repo.ListRoster(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}

	creator, err := s.creator(ctx, event.CreatedBy)
	if err != nil {
		return nil, err
	}

	return &models.EventDetail{Event: *event, Creator: creator, RegisteredUsers: roster}, nil
}

// List returns one page of events whose title contains keyword, ordered by date.
// Pages start at 1; values below 1 are treated as 1.
func (s *Service) List(ctx context.Context, keyword string, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}

	events, total, err := s.repo.ListEvents(ctx, repository.EventFilter{
		Keyword: keyword,
		Limit:   PageSize,
		Offset:  (page - 1) * PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	listings, err := s.withCreators(ctx, events)
	if err != nil {
		return nil, err
	}

	return &Page{
		Events: listings,
		Page:   page,
		Pages:  int((total + PageSize - 1) / PageSize),
		Total:  total,
	}, nil
}

// Mine returns the events userID is registered for.
func (s *Service) Mine(ctx context.Context, userID int64) ([]models.EventListing, error) {
	events, err := s.repo.ListEventsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return s.withCreators(ctx, events)
}

// Register adds userID to the event roster.
// Checks run in the order NotFound, InvalidState, AlreadyRegistered, Full.
func (s *Service) Register(ctx context.Context, eventID, userID int64) error {
	err := s.repo.AddRegistration(ctx, eventID, userID)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "event_registration", "event_id", eventID, "user_id", userID)
		return nil
	case errors.Is(err, repository.ErrEventClosed):
		return apperr.New(apperr.KindInvalidState, "Can only register for upcoming events")
	default:
		return mapError(err)
	}
}

// Unregister removes userID from the event roster.
// Checks run in the order NotFound, InvalidState, NotRegistered.
func (s *Service) Unregister(ctx context.Context, eventID, userID int64) error {
	err := s.repo.RemoveRegistration(ctx, eventID, userID)
	switch {
	case err == nil:
		slog.InfoContext(ctx, "event_unregistration", "event_id", eventID, "user_id", userID)
		return nil
	case errors.Is(err, repository.ErrEventClosed):
		return apperr.New(apperr.KindInvalidState, "Can only unregister from upcoming events")
	default:
		return mapError(err)
	}
}

func (s *Service) withCreators(ctx context.Context, events []models.Event) ([]models.EventListing, error) {
	creators := make(map[int64]*models.UserSummary)
	listings := make([]models.EventListing, 0, len(events))

	for _, event := range events {
		creator, ok := creators[event.CreatedBy]
		if !ok {
			var err error
			creator, err = s.creator(ctx, event.CreatedBy)
			if err != nil {
				return nil, err
			}
			creators[event.CreatedBy] = creator
		}
		listings = append(listings, models.EventListing{Event: event, Creator: creator})
	}

	return listings, nil
}

func (s *Service) creator(ctx context.Context, id int64) (*models.UserSummary, error) {
	creator, err := s.repo.GetUserSummary(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get creator: %w", err)
	}
	return creator, nil
}

// clean strips all markup from user-supplied text. Entities produced by the
// sanitizer are decoded again so the API returns plain text.
func (s *Service) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(value)))
}

func validate(event *models.Event) error {
	switch {
	case event.Title == "":
		return apperr.New(apperr.KindValidation, "Please add a title")
	case event.Description == "":
		return apperr.New(apperr.KindValidation, "Please add a description")
	case event.Date.IsZero():
		return apperr.New(apperr.KindValidation, "Please add a date")
	case event.Time == "":
		return apperr.New(apperr.KindValidation, "Please add a time")
	case event.Venue == "":
		return apperr.New(apperr.KindValidation, "Please add a venue")
	case !event.Category.Valid():
		return apperr.New(apperr.KindValidation, "Category must be one of Workshop, Seminar, Conference, Social, Other")
	case event.Capacity <= 0:
		return apperr.New(apperr.KindValidation, "Capacity must be a positive number")
	case !event.Status.Valid():
		return apperr.New(apperr.KindValidation, "Status must be one of upcoming, ongoing, completed, cancelled")
	}
	return nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrEventNotFound
	case errors.Is(err, repository.ErrEventClosed):
		return apperr.ErrInvalidState
	case errors.Is(err, repository.ErrAlreadyRegistered):
		return apperr.ErrAlreadyRegistered
	case errors.Is(err, repository.ErrNotRegistered):
		return apperr.ErrNotRegistered
	case errors.Is(err, repository.ErrEventFull):
		return apperr.ErrFull
	case errors.Is(err, repository.ErrCapacityBelowRoster):
		return apperr.ErrInvalidCapacity
	}
	return err
}
