package security_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/vetclinic/pkg/security"
)

func TestSecretHasher(t *testing.T) {
	h := security.NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("recepcion-2024")
	require.NoError(t, err)
	assert.NotEqual(t, "recepcion-2024", hash)

	assert.NoError(t, h.Compare(hash, "recepcion-2024"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), security.ErrSecretMismatch)

	other, err := h.Hash("recepcion-2024")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "each hash is salted")

	_, err = h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, security.ErrSecretTooLong)
}

func TestFieldCipher_RoundTrip(t *testing.T) {
	c, err := security.NewFieldCipher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	enc, err := c.Encrypt("otitis externa")
	require.NoError(t, err)
	assert.NotContains(t, enc, "otitis")

	plain, err := c.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "otitis externa", plain)
}

func TestFieldCipher_PassesThroughPlaintext(t *testing.T) {
	c, err := security.NewFieldCipher([]byte("0123456789abcdef"))
	require.NoError(t, err)

	plain, err := c.Decrypt("not recorded")
	require.NoError(t, err)
	assert.Equal(t, "not recorded", plain)

	_, err = c.Decrypt("enc:v1:%%%")
	assert.ErrorIs(t, err, security.ErrDecryption)
}

func TestNewFieldCipher_BadKey(t *testing.T) {
	_, err := security.NewFieldCipher([]byte("short"))
	assert.ErrorIs(t, err, security.ErrInvalidKeySize)
}
