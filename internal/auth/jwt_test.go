package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.GenerateToken("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.NotEmpty(t, claims.JTI)
}

func TestParse_WrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	token, err := issuer.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = verifier.ParseAndValidate(token)
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)

	token, err := m.GenerateToken("user-1")
	require.NoError(t, err)

	_, err = m.ParseAndValidate(token)
	assert.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	_, err := m.ParseAndValidate("not.a.token")
	assert.Error(t, err)
}

func TestHashToken(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	other := NewManager("other-secret", time.Hour)

	h1 := m.HashToken("raw-token")
	h2 := m.HashToken("raw-token")
	assert.Equal(t, h1, h2, "hash must be deterministic")

	assert.NotEqual(t, h1, m.HashToken("different-token"))
	assert.NotEqual(t, h1, other.HashToken("raw-token"), "hash is peppered by the secret")
}

func TestGeneratedTokensAreUnique(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	t1, err := m.GenerateToken("user-1")
	require.NoError(t, err)

	t2, err := m.GenerateToken("user-1")
	require.NoError(t, err)

	// fresh jti per issue, so two logins yield two revocable tokens
	assert.NotEqual(t, t1, t2)
}
