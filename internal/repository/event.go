// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"
	"time"

	"codeberg.org/auisnexus/nexus/internal/models"
)

const eventColumns = `e.id, e.title, e.description, e.date, e.time, e.venue, e.category,
	e.capacity, e.image, e.status, e.created_by, e.created_at, e.updated_at,
	(SELECT COUNT(*) FROM event_registrations r WHERE r.event_id = e.id) AS registered_count`

// EventFilter narrows and pages an event listing.
type EventFilter struct {
	Keyword string
	Limit   int
	Offset  int
}

// CreateEvent inserts a new event and reloads it.
func (r *Repository) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.Status == "" {
		event.Status = models.StatusUpcoming
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO events (title, description, date, time, venue, category, capacity, image, status, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Title, event.Description, event.Date.UTC(), event.Time, event.Venue,
		event.Category, event.Capacity, event.Image, event.Status, event.CreatedBy)
	if err != nil {
		return wrapError(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	created, err := r.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	*event = *created
	return nil
}

// GetEvent retrieves an event with its current roster size.
func (r *Repository) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := r.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &event, nil
}

// ListEvents returns one page of events ordered by date, plus the total match count.
func (r *Repository) ListEvents(ctx context.Context, filter EventFilter) ([]models.Event, int64, error) {
	where := ""
	var args []any
	if kw := strings.TrimSpace(filter.Keyword); kw != "" {
		where = ` WHERE e.title LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(kw)+"%")
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM events e`+where, args...); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + eventColumns + ` FROM events e` + where + ` ORDER BY e.date ASC, e.id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// ListEventsForUser returns the events a user is registered for, ordered by date.
func (r *Repository) ListEventsForUser(ctx context.Context, userID int64) ([]models.Event, error) {
	events := []models.Event{}
	err := r.db.SelectContext(ctx, &events,
		`SELECT `+eventColumns+`
		 FROM events e
		 JOIN event_registrations reg ON reg.event_id = e.id
		 WHERE reg.user_id = ?
		 ORDER BY e.date ASC, e.id ASC`, userID)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEvent saves every mutable column of the event. The write is conditional on the
// new capacity still covering the roster; otherwise nothing changes and
// ErrCapacityBelowRoster is returned.
func (r *Repository) UpdateEvent(ctx context.Context, event *models.Event) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE events SET
			title = ?, description = ?, date = ?, time = ?, venue = ?, category = ?,
			capacity = ?, image = ?, status = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?
		   AND ? >= (SELECT COUNT(*) FROM event_registrations WHERE event_id = ?)`,
		event.Title, event.Description, event.Date.UTC(), event.Time, event.Venue, event.Category,
		event.Capacity, event.Image, event.Status,
		event.ID, event.Capacity, event.ID)
	if err != nil {
		return wrapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, getErr := r.GetEvent(ctx, event.ID); getErr != nil {
			return getErr
		}
		return ErrCapacityBelowRoster
	}

	updated, err := r.GetEvent(ctx, event.ID)
	if err != nil {
		return err
	}
	*event = *updated
	return nil
}

// DeleteEvent removes an event; its roster is removed by cascade.
func (r *Repository) DeleteEvent(ctx context.Context, id int64) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id))
}

// AddRegistration appends userID to the event roster in a single conditional statement.
// The row is inserted only if the event exists, is upcoming, the user is not yet on the
// roster and the roster is below capacity. When nothing is inserted the cause is
// reported in the order ErrNotFound, ErrEventClosed, ErrAlreadyRegistered, ErrEventFull.
func (r *Repository) AddRegistration(ctx context.Context, eventID, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO event_registrations (event_id, user_id, created_at)
		 SELECT e.id, ?, ?
		 FROM events e
		 WHERE e.id = ?
		   AND e.status = 'upcoming'
		   AND NOT EXISTS (SELECT 1 FROM event_registrations WHERE event_id = e.id AND user_id = ?)
		   AND (SELECT COUNT(*) FROM event_registrations WHERE event_id = e.id) < e.capacity
		 ON CONFLICT (event_id, user_id) DO NOTHING`,
		userID, time.Now().UTC(), eventID, userID)
	if err != nil {
		return wrapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	event, registered, err := r.rosterState(ctx, eventID, userID)
	if err != nil {
		return err
	}
	switch {
	case event.Status != models.StatusUpcoming:
		return ErrEventClosed
	case registered:
		return ErrAlreadyRegistered
	default:
		return ErrEventFull
	}
}

// RemoveRegistration deletes userID from the event roster in a single conditional
// statement. When nothing is removed the cause is reported in the order ErrNotFound,
// ErrEventClosed, ErrNotRegistered.
func (r *Repository) RemoveRegistration(ctx context.Context, eventID, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM event_registrations
		 WHERE event_id = ? AND user_id = ?
		   AND EXISTS (SELECT 1 FROM events WHERE id = ? AND status = 'upcoming')`,
		eventID, userID, eventID)
	if err != nil {
		return wrapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	event, _, err := r.rosterState(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if event.Status != models.StatusUpcoming {
		return ErrEventClosed
	}
	return ErrNotRegistered
}

// IsRegistered reports whether userID is on the event roster.
func (r *Repository) IsRegistered(ctx context.Context, eventID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM event_registrations WHERE event_id = ? AND user_id = ?)`,
		eventID, userID)
	return exists, err
}

// ListRoster returns the registered users of an event in registration order.
func (r *Repository) ListRoster(ctx context.Context, eventID int64) ([]models.UserSummary, error) {
	users := []models.UserSummary{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT u.id, u.first_name, u.last_name, u.email
		 FROM event_registrations reg
		 JOIN users u ON u.id = reg.user_id
		 WHERE reg.event_id = ?
		 ORDER BY reg.created_at ASC, u.id ASC`, eventID)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// GetUserSummary returns the reduced representation of a user.
func (r *Repository) GetUserSummary(ctx context.Context, id int64) (*models.UserSummary, error) {
	var user models.UserSummary
	err := r.db.GetContext(ctx, &user, `SELECT id, first_name, last_name, email FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

func (r *Repository) rosterState(ctx context.Context, eventID, userID int64) (*models.Event, bool, error) {
	event, err := r.GetEvent(ctx, eventID)
	if err != nil {
		return nil, false, err
	}
	registered, err := r.IsRegistered(ctx, eventID, userID)
	if err != nil {
		return nil, false, err
	}
	return event, registered, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
