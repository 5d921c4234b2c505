// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// EventCategory is the closed set of event categories.
type EventCategory string

const (
	CategoryWorkshop   EventCategory = "Workshop"
	CategorySeminar    EventCategory = "Seminar"
	CategoryConference EventCategory = "Conference"
	CategorySocial     EventCategory = "Social"
	CategoryOther      EventCategory = "Other"
)

// Valid reports whether c is a known category.
func (c EventCategory) Valid() bool {
	switch c {
	case CategoryWorkshop, CategorySeminar, CategoryConference, CategorySocial, CategoryOther:
		return true
	}
	return false
}

// Event is an admin-managed gathering with a capacity-bounded roster.
type Event struct { //nolint:govet // fieldalignment: readability over optimization
	ID              int64         `db:"id" json:"id"`
	Title           string        `db:"title" json:"title"`
	Description     string        `db:"description" json:"description"`
	Date            time.Time     `db:"date" json:"date"`
	Time            string        `db:"time" json:"time"`
	Venue           string        `db:"venue" json:"venue"`
	Category        EventCategory `db:"category" json:"category"`
	Capacity        int           `db:"capacity" json:"capacity"`
	Image           string        `db:"image" json:"image,omitempty"`
	Status          EventStatus   `db:"status" json:"status"`
	CreatedBy       int64         `db:"created_by" json:"createdBy"`
	RegisteredCount int           `db:"registered_count" json:"registeredCount"`
	CreatedAt       time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updatedAt"`
}

// IsFull reports whether the roster has reached capacity.
func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.Capacity
}

// EventDetail is an event with its creator and roster resolved.
type EventDetail struct {
	Event
	Creator         *UserSummary  `json:"creator,omitempty"`
	RegisteredUsers []UserSummary `json:"registeredUsers"`
}

// EventListing is an event with its creator resolved, as shown in listings.
type EventListing struct {
	Event
	Creator *UserSummary `json:"creator,omitempty"`
}
