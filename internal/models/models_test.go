// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models_test

import (
	"encoding/json"
	"testing"

	"codeberg.org/auisnexus/nexus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_JSONOmitsSecrets(t *testing.T) {
	token := "hashed-token"
	user := &models.User{
		ID:                     1,
		Email:                  "a@x.com",
		PasswordHash:           "$2a$10$secret",
		EmailVerificationToken: &token,
		ResetPasswordToken:     &token,
	}

	data, err := json.Marshal(user)

	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.NotContains(t, string(data), "hashed-token")
	assert.Contains(t, string(data), `"email":"a@x.com"`)
}

func TestUser_Public(t *testing.T) {
	user := &models.User{
		ID:              7,
		FirstName:       "Amina",
		LastName:        "Yusuf",
		Email:           "amina@example.com",
		PasswordHash:    "hash",
		Role:            models.RoleAdmin,
		IsEmailVerified: true,
	}

	pub := user.Public()

	assert.Equal(t, int64(7), pub.ID)
	assert.Equal(t, models.RoleAdmin, pub.Role)
	assert.True(t, pub.IsEmailVerified)
	assert.Equal(t, "Amina Yusuf", user.FullName())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", models.NormalizeEmail("  A@X.Com "))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, models.RoleUser.Valid())
	assert.True(t, models.RoleAdmin.Valid())
	assert.False(t, models.Role("owner").Valid())
}

func TestEventStatus_Valid(t *testing.T) {
	tests := []struct {
		status   models.EventStatus
		expected bool
	}{
		{models.StatusUpcoming, true},
		{models.StatusOngoing, true},
		{models.StatusCompleted, true},
		{models.StatusCancelled, true},
		{"postponed", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.Valid())
		})
	}
}

func TestEventCategory_Valid(t *testing.T) {
	assert.True(t, models.CategoryWorkshop.Valid())
	assert.True(t, models.CategoryOther.Valid())
	assert.False(t, models.EventCategory("workshop").Valid())
}

func TestEvent_IsFull(t *testing.T) {
	e := &models.Event{Capacity: 2, RegisteredCount: 1}
	assert.False(t, e.IsFull())

	e.RegisteredCount = 2
	assert.True(t, e.IsFull())
}
