package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCipher_RoundTrip(t *testing.T) {
	cipher, err := NewConfigCipher("unit-test-secret")
	require.NoError(t, err)

	for _, plain := range []string{"sk_live_abc123", "", "配置值", "multi\nline"} {
		enc, err := cipher.Encrypt(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, enc)

		dec, err := cipher.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, plain, dec)
	}
}

func TestConfigCipher_NoncesDiffer(t *testing.T) {
	cipher, err := NewConfigCipher("unit-test-secret")
	require.NoError(t, err)

	first, err := cipher.Encrypt("value")
	require.NoError(t, err)
	second, err := cipher.Encrypt("value")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestConfigCipher_WrongKeyFails(t *testing.T) {
	a, err := NewConfigCipher("secret-a")
	require.NoError(t, err)
	b, err := NewConfigCipher("secret-b")
	require.NoError(t, err)

	enc, err := a.Encrypt("value")
	require.NoError(t, err)

	_, err = b.Decrypt(enc)
	assert.Error(t, err)
}

func TestConfigCipher_GarbageInputFails(t *testing.T) {
	cipher, err := NewConfigCipher("unit-test-secret")
	require.NoError(t, err)

	_, err = cipher.Decrypt("not-base64!!!")
	assert.Error(t, err)

	// Legacy plaintext that happens to be valid base64 but is too
	// short to carry a nonce.
	_, err = cipher.Decrypt("YWJj")
	assert.Error(t, err)
}

func TestNewConfigCipher_RequiresSecret(t *testing.T) {
	_, err := NewConfigCipher("")
	assert.Error(t, err)
}
