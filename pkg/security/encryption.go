package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"strings"
)

var (
	ErrInvalidKeySize = errors.New("invalid key size")
	ErrEncryption     = errors.New("encryption failed")
	ErrDecryption     = errors.New("decryption failed")
)

// fieldPrefix marks values produced by FieldCipher so plaintext rows written
// before encryption was enabled still read back.
const fieldPrefix = "enc:v1:"

// FieldCipher encrypts individual text columns with AES-GCM.
type FieldCipher struct {
	gcm cipher.AEAD
}

// NewFieldCipher accepts a 16, 24 or 32 byte key.
func NewFieldCipher(key []byte) (*FieldCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKeySize
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, ErrEncryption
	}
	return &FieldCipher{gcm: gcm}, nil
}

func (c *FieldCipher) Encrypt(plain string) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", ErrEncryption
	}
	sealed := c.gcm.Seal(nonce, nonce, []byte(plain), nil)
	return fieldPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *FieldCipher) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, fieldPrefix) {
		return value, nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, fieldPrefix))
	if err != nil {
		return "", ErrDecryption
	}
	n := c.gcm.NonceSize()
	if len(data) < n {
		return "", ErrDecryption
	}
	plain, err := c.gcm.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plain), nil
}
