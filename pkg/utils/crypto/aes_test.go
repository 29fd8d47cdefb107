package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cipherText, err := Encrypt(`{"password":"secret"}`, "some-key")
	require.NoError(t, err)
	assert.NotContains(t, cipherText, "secret")

	plain, err := Decrypt(cipherText, "some-key")
	require.NoError(t, err)
	assert.Equal(t, `{"password":"secret"}`, plain)
}

func TestEncryptRequiresKey(t *testing.T) {
	_, err := Encrypt("data", "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestDecryptWrongKey(t *testing.T) {
	cipherText, err := Encrypt("data", "key-a")
	require.NoError(t, err)

	_, err = Decrypt(cipherText, "key-b")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := Decrypt("not base64 at all!!!", "key")
	assert.ErrorIs(t, err, ErrInvalidCipherText)

	_, err = Decrypt("c2hvcnQ=", "key") // valid base64, too short for a nonce
	assert.ErrorIs(t, err, ErrInvalidCipherText)
}

func TestEncryptProducesUniqueCipherText(t *testing.T) {
	a, err := Encrypt("data", "key")
	require.NoError(t, err)
	b, err := Encrypt("data", "key")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "a fresh nonce is used for every encryption")
}
