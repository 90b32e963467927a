package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestGenerateAndVerifyToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("42", "admin")
	require.NoError(t, err)

	claims, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := VerifyToken("not-a-token")
	assert.Error(t, err)
}

func TestNullableStringDistinguishesNullFromOmitted(t *testing.T) {
	var payload struct {
		Room NullableString `json:"room"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{}`), &payload))
	assert.False(t, payload.Room.Set)

	require.NoError(t, json.Unmarshal([]byte(`{"room": null}`), &payload))
	assert.True(t, payload.Room.Set)
	assert.Nil(t, payload.Room.Value)

	require.NoError(t, json.Unmarshal([]byte(`{"room": "A101"}`), &payload))
	assert.True(t, payload.Room.Set)
	require.NotNil(t, payload.Room.Value)
	assert.Equal(t, "A101", *payload.Room.Value)
}
