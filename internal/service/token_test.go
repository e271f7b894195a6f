package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/hogarya/hogarya-backend/internal/domain/statemachine"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	userID := uuid.New()

	raw, err := m.CreateAccess(userID, statemachine.RoleClient)
	assert.NoError(t, err)

	parsedID, role, err := m.ParseAccess(raw)
	assert.NoError(t, err)
	assert.Equal(t, userID, parsedID)
	assert.Equal(t, statemachine.RoleClient, role)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	other := NewTokenManager("other-secret", time.Hour)

	raw, err := m.CreateAccess(uuid.New(), statemachine.RolePro)
	assert.NoError(t, err)

	_, _, err = other.ParseAccess(raw)
	assert.Error(t, err)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)

	raw, err := m.CreateAccess(uuid.New(), statemachine.RoleClient)
	assert.NoError(t, err)

	_, _, err = m.ParseAccess(raw)
	assert.Error(t, err)
}

func TestTokenManager_SystemRoleRejected(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	raw, err := m.CreateAccess(uuid.New(), statemachine.RoleSystem)
	assert.NoError(t, err)

	_, _, err = m.ParseAccess(raw)
	assert.Error(t, err)
}
