package auth

import (
	"testing"
	"time"

	"surveillance/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret"), time.Hour)
	id := Identity{UserID: uuid.New(), Username: "asha1", Roles: []string{model.RoleASHA}}

	token, expiresAt, err := tm.IssueAccess(id)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	parsed, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseRejectsExpired(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret"), time.Minute)
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, _, err := tm.IssueAccess(Identity{UserID: uuid.New(), Username: "old"})
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewTokenManager([]byte("a"), time.Hour).IssueAccess(Identity{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = NewTokenManager([]byte("b"), time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestIdentityRoles(t *testing.T) {
	doctor := Identity{Roles: []string{model.RoleDoctor}}
	asha := Identity{Roles: []string{model.RoleASHA}}
	staff := Identity{Staff: true}

	assert.True(t, doctor.CanReview())
	assert.False(t, doctor.CanAdministerDistrict())
	assert.False(t, asha.CanReview())
	assert.True(t, staff.CanReview())
	assert.True(t, staff.CanAdministerState())
	assert.False(t, doctor.IsAdmin())
}

func TestNewRefreshTokenUnique(t *testing.T) {
	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
