package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrToInt64(t *testing.T) {
	n, err := StrToInt64("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = StrToInt64("not-a-number")
	assert.Error(t, err)
}

func TestNewNullString(t *testing.T) {
	assert.Nil(t, NewNullString(""))

	s := NewNullString("Jumbo")
	require.NotNil(t, s)
	assert.Equal(t, "Jumbo", *s)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   \t"))
	assert.False(t, IsEmpty("x"))
}

func TestGetenvFallbacks(t *testing.T) {
	t.Setenv("POULTRY_TEST_STR", "set")
	assert.Equal(t, "set", Getenv("POULTRY_TEST_STR", "fallback"))
	assert.Equal(t, "fallback", Getenv("POULTRY_TEST_MISSING", "fallback"))

	t.Setenv("POULTRY_TEST_INT", "30")
	assert.Equal(t, 30, GetenvInt("POULTRY_TEST_INT", 25))
	t.Setenv("POULTRY_TEST_INT", "garbage")
	assert.Equal(t, 25, GetenvInt("POULTRY_TEST_INT", 25))
	assert.Equal(t, 25, GetenvInt("POULTRY_TEST_INT_MISSING", 25))
}

func TestRespondWithErrorEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondWithError(c, NewAPIError(http.StatusConflict, ErrCodeConflict, "Batch ID already in use.", "B-001"))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.True(t, c.IsAborted())

	var body map[string]APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeConflict, body["error"].Code)
	assert.Equal(t, "Batch ID already in use.", body["error"].Message)
	assert.Equal(t, "B-001", body["error"].Details)
}

func TestJWTRoundTrip(t *testing.T) {
	InitJWTSecret("utils-test-secret")

	token, err := GenerateAccessToken(7, "farmhand", "worker")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "farmhand", claims.Username)
	assert.Equal(t, "worker", claims.Role)

	_, err = ValidateToken(token + "tampered")
	assert.Error(t, err)
}

func TestRefreshTokenCarriesOnlyUserID(t *testing.T) {
	InitJWTSecret("utils-test-secret")

	token, err := GenerateRefreshToken(11)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(11), claims.UserID)
	assert.Empty(t, claims.Username)
	assert.Empty(t, claims.Role)
}
