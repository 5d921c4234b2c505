// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package events_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"codeberg.org/auisnexus/nexus/internal/apperr"
	"codeberg.org/auisnexus/nexus/internal/models"
	"codeberg.org/auisnexus/nexus/internal/repository"
	"codeberg.org/auisnexus/nexus/internal/services/events"
	"codeberg.org/auisnexus/nexus/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*events.Service, *repository.Repository, *models.User) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	admin := testutil.NewTestAdmin(t, repo, "admin@example.com")
	return events.NewService(repo), repo, admin
}

func validParams() events.CreateParams {
	return events.CreateParams{
		Title:       "Quran Circle",
		Description: "Weekly recitation",
		Date:        time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC),
		Time:        "18:00",
		Venue:       "Room 101",
		Category:    models.CategorySeminar,
		Capacity:    2,
	}
}

func TestParseDate(t *testing.T) {
	d, err := events.ParseDate("2030-05-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = events.ParseDate("2030-05-01T18:00:00+03:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 5, 1, 15, 0, 0, 0, time.UTC), d)

	_, err = events.ParseDate("next friday")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreate(t *testing.T) {
	svc, _, admin := setup(t)

	event, err := svc.Create(context.Background(), admin.ID, validParams())

	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.Equal(t, models.StatusUpcoming, event.Status)
	assert.Equal(t, admin.ID, event.CreatedBy)
	assert.Equal(t, 0, event.RegisteredCount)
}

func TestCreate_StripsMarkup(t *testing.T) {
	svc, _, admin := setup(t)
	params := validParams()
	params.Title = "<b>Tea & Talk</b>"

	event, err := svc.Create(context.Background(), admin.ID, params)

	require.NoError(t, err)
	assert.Equal(t, "Tea & Talk", event.Title)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*events.CreateParams)
	}{
		{"missing title", func(p *events.CreateParams) { p.Title = "  " }},
		{"missing description", func(p *events.CreateParams) { p.Description = "" }},
		{"missing date", func(p *events.CreateParams) { p.Date = time.Time{} }},
		{"missing venue", func(p *events.CreateParams) { p.Venue = "" }},
		{"bad category", func(p *events.CreateParams) { p.Category = "Party" }},
		{"zero capacity", func(p *events.CreateParams) { p.Capacity = 0 }},
		{"negative capacity", func(p *events.CreateParams) { p.Capacity = -3 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, admin := setup(t)
			params := validParams()
			tt.modify(&params)

			_, err := svc.Create(context.Background(), admin.ID, params)

			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}
}

func TestRegister_CapacityBound(t *testing.T) {
	svc, repo, admin := setup(t)
	ctx := context.Background()
	event, err := svc.Create(ctx, admin.ID, validParams())
	require.NoError(t, err)

	a := testutil.NewTestUser(t, repo, "a@example.com")
	b := testutil.NewTestUser(t, repo, "b@example.com")
	c := testutil.NewTestUser(t, repo, "c@example.com")

	require.NoError(t, svc.Register(ctx, event.ID, a.ID))
	require.NoError(t, svc.Register(ctx, event.ID, b.ID))

	err = svc.Register(ctx, event.ID, c.ID)
	require.ErrorIs(t, err, apperr.ErrFull)
	assert.Equal(t, "Event is full", err.Error())

	err = svc.Register(ctx, event.ID, a.ID)
	assert.ErrorIs(t, err, apperr.ErrAlreadyRegistered)

	detail, err := svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.RegisteredCount)
	require.Len(t, detail.RegisteredUsers, 2)
	assert.Equal(t, a.ID, detail.RegisteredUsers[0].ID)
	require.NotNil(t, detail.Creator)
	assert.Equal(t, admin.ID, detail.Creator.ID)
}

func TestRegister_Errors(t *testing.T) {
	svc, repo, admin := setup(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "u@example.com")

	err := svc.Register(ctx, 999, user.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "Event not found", err.Error())

	event, err := svc.Create(ctx, admin.ID, validParams())
	require.NoError(t, err)
	status := models.StatusCompleted
	_, err = svc.Update(ctx, event.ID, events.UpdateParams{Status: &status})
	require.NoError(t, err)

	err = svc.Register(ctx, event.ID, user.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Equal(t, "Can only register for upcoming events", err.Error())
}

func TestUnregister(t *testing.T) {
	svc, repo, admin := setup(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "u@example.com")
	event, err := svc.Create(ctx, admin.ID, validParams())
	require.NoError(t, err)

	err = svc.Unregister(ctx, event.ID, user.ID)
	require.ErrorIs(t, err, apperr.ErrNotRegistered)

	require.NoError(t, svc.Register(ctx, event.ID, user.ID))
	require.NoError(t, svc.Unregister(ctx, event.ID, user.ID))

	detail, err := svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.RegisteredUsers)
}

func TestUnregister_ClosedEvent(t *testing.T) {
	svc, repo, admin := setup(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "u@example.com")
	event, err := svc.Create(ctx, admin.ID, validParams())
	require.NoError(t, err)
	require.NoError(t, svc.Register(ctx, event.ID, user.ID))

	status := models.StatusCancelled
	_, err = svc.Update(ctx, event.ID, events.UpdateParams{Status: &status})
	require.NoError(t, err)

	err = svc.Unregister(ctx, event.ID, user.ID)
	require.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.Equal(t, "Can only unregister from upcoming events", err.Error())
}

func TestUpdate_Partial(t *testing.T) {
	svc, _, admin := setup(t)
	ctx := context.Background()
	event, err := svc.Create(ctx, admin.ID, validParams())
	require.NoError(t, err)

	venue := "Auditorium"
	updated, err := svc.Update(ctx, event.ID, events.UpdateParams{Venue: &venue})

	require.NoError(t, err)
	assert.Equal(t, "Auditorium", updated.Venue)
	assert.Equal(t, "Quran Circle", updated.Title)
	assert.Equal(t, 2, updated.Capacity)
}

func TestUpdate_CapacityBelowRoster(t *testing.T) {
	svc, repo, admin := setup(t)
	ctx := context.Background()
	event, err := svc.Create(ctx, admin.ID, validParams())
	require.NoError(t, err)
	for i := range 2 {
		u := testutil.NewTestUser(t, repo, fmt.Sprintf("u%d@example.com", i))
		require.NoError(t, svc.Register(ctx, event.ID, u.ID))
	}

	capacity := 1
	title := "Renamed"
	_, err = svc.Update(ctx, event.ID, events.UpdateParams{Capacity: &capacity, Title: &title})

	require.ErrorIs(t, err, apperr.ErrInvalidCapacity)
	assert.Equal(t, "Cannot reduce capacity below number of registered users", err.Error())

	detail, err := svc.Get(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, detail.Capacity)
	assert.Equal(t, "Quran Circle", detail.Title)
}

func TestUpdate_InvalidStatus(t *testing.T) {
	svc, _, admin := setup(t)
	ctx := context.Background()
	event, err := svc.Create(ctx, admin.ID, validParams())
	require.NoError(t, err)

	status := models.EventStatus("postponed")
	_, err = svc.Update(ctx, event.ID, events.UpdateParams{Status: &status})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := setup(t)
	title := "x"

	_, err := svc.Update(context.Background(), 42, events.UpdateParams{Title: &title})

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, events.ErrEventNotFound.Message, err.(*apperr.Error).Message)
}

func TestDelete(t *testing.T) {
	svc, repo, admin := setup(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "u@example.com")
	event, err := svc.Create(ctx, admin.ID, validParams())
	require.NoError(t, err)
	require.NoError(t, svc.Register(ctx, event.ID, user.ID))

	require.NoError(t, svc.Delete(ctx, event.ID))

	_, err = svc.Get(ctx, event.ID)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	mine, err := svc.Mine(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	assert.ErrorIs(t, svc.Delete(ctx, event.ID), apperr.ErrNotFound)
}

func TestList_Paging(t *testing.T) {
	svc, _, admin := setup(t)
	ctx := context.Background()
	for i := range 12 {
		params := validParams()
		params.Title = fmt.Sprintf("Lecture %02d", i)
		params.Date = params.Date.AddDate(0, 0, i)
		_, err := svc.Create(ctx, admin.ID, params)
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 2, first.Pages)
	assert.Equal(t, int64(12), first.Total)
	require.Len(t, first.Events, events.PageSize)
	assert.Equal(t, "Lecture 00", first.Events[0].Title)
	require.NotNil(t, first.Events[0].Creator)
	assert.Equal(t, admin.ID, first.Events[0].Creator.ID)

	second, err := svc.List(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, second.Events, 2)
	assert.Equal(t, "Lecture 11", second.Events[1].Title)

	filtered, err := svc.List(ctx, "lecture 1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), filtered.Total)
	assert.Equal(t, 1, filtered.Pages)
}

func TestList_Empty(t *testing.T) {
	svc, _, _ := setup(t)

	page, err := svc.List(context.Background(), "nothing", 1)

	require.NoError(t, err)
	assert.Empty(t, page.Events)
	assert.NotNil(t, page.Events)
	assert.Equal(t, 0, page.Pages)
}

func TestMine(t *testing.T) {
	svc, repo, admin := setup(t)
	ctx := context.Background()
	user := testutil.NewTestUser(t, repo, "u@example.com")
	first, err := svc.Create(ctx, admin.ID, validParams())
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin.ID, validParams())
	require.NoError(t, err)
	require.NoError(t, svc.Register(ctx, first.ID, user.ID))

	mine, err := svc.Mine(ctx, user.ID)

	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
}
