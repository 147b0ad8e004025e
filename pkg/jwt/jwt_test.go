package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateYParse(t *testing.T) {
	token, err := Generate("secreto", "user-1", "ana@empresa.co", "approver", "kpis-api", 15)
	require.NoError(t, err)

	userID, email, role, err := Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.Equal(t, "ana@empresa.co", email)
	assert.Equal(t, "approver", role)
}

func TestParse_FirmaIncorrecta(t *testing.T) {
	token, err := Generate("secreto", "user-1", "ana@empresa.co", "viewer", "kpis-api", 15)
	require.NoError(t, err)

	_, _, _, err = Parse("otro-secreto", token)
	assert.Error(t, err)
}

func TestParse_TokenExpirado(t *testing.T) {
	token, err := Generate("secreto", "user-1", "ana@empresa.co", "viewer", "kpis-api", -5)
	require.NoError(t, err)

	_, _, _, err = Parse("secreto", token)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := Generate("", "user-1", "ana@empresa.co", "viewer", "kpis-api", 15)
	assert.Error(t, err)
}
