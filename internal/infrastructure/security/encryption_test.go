package security

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	sum := sha256.Sum256([]byte("user password"))
	key := hex.EncodeToString(sum[:])
	plaintext := []byte(`{"sessionId":"abc","rows":[["2024-01-01","10"]]}`)

	encrypted, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "sessionId")

	decrypted, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	rightSum := sha256.Sum256([]byte("right password"))
	wrongSum := sha256.Sum256([]byte("wrong password"))

	encrypted, err := Encrypt([]byte("secret"), hex.EncodeToString(rightSum[:]))
	require.NoError(t, err)

	_, err = Decrypt(encrypted, hex.EncodeToString(wrongSum[:]))
	assert.Error(t, err)
}

func TestEncryptRejectsBadKeys(t *testing.T) {
	_, err := Encrypt([]byte("data"), "")
	assert.Error(t, err)

	_, err = Encrypt([]byte("data"), "short")
	assert.Error(t, err)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	sum := sha256.Sum256([]byte("password"))
	key := hex.EncodeToString(sum[:])

	a, err := Encrypt([]byte("same input"), key)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same input"), key)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "a fresh nonce must be used per call")
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("ops-password")
	require.NoError(t, err)
	assert.NotEqual(t, "ops-password", hash)

	assert.True(t, CheckPassword("ops-password", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
