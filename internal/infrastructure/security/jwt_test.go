package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-for-unit-tests"

func TestShareTokenRoundtrip(t *testing.T) {
	token, err := GenerateShareToken("sess-abc", "model-123", testSecret, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseShareToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "sess-abc", claims.SessionID)
	assert.Equal(t, "model-123", claims.ModelID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestShareTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateShareToken("sess-abc", "model-123", testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseShareToken(token, "a-different-secret")
	assert.Error(t, err)
}

func TestShareTokenRejectsExpired(t *testing.T) {
	token, err := GenerateShareToken("sess-abc", "model-123", testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseShareToken(token, testSecret)
	assert.Error(t, err)
}

func TestOpsTokenRoundtrip(t *testing.T) {
	token, err := GenerateOpsToken(testSecret, time.Hour)
	require.NoError(t, err)

	assert.NoError(t, ValidateOpsToken(token, testSecret))
	assert.Error(t, ValidateOpsToken(token, "wrong-secret"))
	assert.Error(t, ValidateOpsToken("not-a-token", testSecret))
}

func TestTokenAudiencesAreNotInterchangeable(t *testing.T) {
	shareToken, err := GenerateShareToken("sess-abc", "model-123", testSecret, time.Hour)
	require.NoError(t, err)
	opsToken, err := GenerateOpsToken(testSecret, time.Hour)
	require.NoError(t, err)

	assert.ErrorIs(t, ValidateOpsToken(shareToken, testSecret), ErrWrongAudience)

	_, err = ParseShareToken(opsToken, testSecret)
	assert.ErrorIs(t, err, ErrWrongAudience)
}
