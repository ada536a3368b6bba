package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEncryptor(t *testing.T) {
	t.Run("valid key size", func(t *testing.T) {
		enc, err := NewEncryptor(make([]byte, 32))
		require.NoError(t, err)
		assert.NotNil(t, enc)
	})

	t.Run("invalid key size", func(t *testing.T) {
		for _, size := range []int{0, 16, 64} {
			enc, err := NewEncryptor(make([]byte, size))
			assert.ErrorIs(t, err, ErrInvalidKeySize)
			assert.Nil(t, enc)
		}
	})
}

func TestNewEncryptorFromBase64(t *testing.T) {
	t.Run("valid base64 key", func(t *testing.T) {
		enc, err := NewEncryptorFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 32)))
		require.NoError(t, err)
		assert.NotNil(t, enc)
	})

	t.Run("invalid base64", func(t *testing.T) {
		enc, err := NewEncryptorFromBase64("not-valid-base64!!!")
		assert.Error(t, err)
		assert.Nil(t, enc)
	})

	t.Run("valid base64 but wrong size", func(t *testing.T) {
		enc, err := NewEncryptorFromBase64(base64.StdEncoding.EncodeToString(make([]byte, 16)))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
		assert.Nil(t, enc)
	})
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := GenerateKeyBytes()
	require.NoError(t, err)
	enc, err := NewEncryptor(key)
	require.NoError(t, err)

	for _, plaintext := range []string{"token-secret", "ünïcødé", "a"} {
		sealed, err := enc.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, sealed)

		opened, err := enc.Decrypt(sealed)
		require.NoError(t, err)
		assert.Equal(t, plaintext, opened)
	}
}

func TestEncrypt_RandomNonce(t *testing.T) {
	enc, err := NewEncryptor(make([]byte, 32))
	require.NoError(t, err)

	a, err := enc.Encrypt("same")
	require.NoError(t, err)
	b, err := enc.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEncryptDecrypt_Empty(t *testing.T) {
	enc, err := NewEncryptor(make([]byte, 32))
	require.NoError(t, err)

	sealed, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	opened, err := enc.Decrypt("")
	require.NoError(t, err)
	assert.Empty(t, opened)
}

func TestDecrypt_Errors(t *testing.T) {
	enc, err := NewEncryptor(make([]byte, 32))
	require.NoError(t, err)

	_, err = enc.Decrypt("!!!")
	assert.Error(t, err)

	_, err = enc.Decrypt(base64.StdEncoding.EncodeToString([]byte("short")))
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	other, err := NewEncryptor(append(make([]byte, 31), 1))
	require.NoError(t, err)
	sealed, err := other.Encrypt("secret")
	require.NoError(t, err)
	_, err = enc.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(key)
	require.NoError(t, err)
	assert.Len(t, raw, KeySize)
}
