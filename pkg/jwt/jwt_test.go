package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager([]byte("test-secret"), time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(id, "a@example.com", "A", authz.RoleAdmin, "v1")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, authz.RoleAdmin, claims.Role)
	assert.Equal(t, "v1", claims.TokenVersion)
}

func TestValidateRejects(t *testing.T) {
	m := NewManager([]byte("test-secret"), time.Hour)

	t.Run("empty", func(t *testing.T) {
		_, err := m.ValidateToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager([]byte("other"), time.Hour)
		token, err := other.GenerateToken(uuid.New(), "a@example.com", "A", authz.RoleBand, "v")
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old := NewManager([]byte("test-secret"), time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := old.GenerateToken(uuid.New(), "a@example.com", "A", authz.RoleBand, "v")
		require.NoError(t, err)
		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken("not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
