package vault

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/desertthunder/spool/internal/shared"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	tokenVersion byte = 0x80
	headerSize        = 1 + 8
	nonceSize         = chacha20poly1305.NonceSizeX

	// KeySize is the length in bytes of keys accepted by [NewCipher].
	KeySize = chacha20poly1305.KeySize
)

var tokenEncoding = base64.RawURLEncoding.Strict()

// Cipher seals and opens secret tokens with a single symmetric key.
type Cipher struct {
	aead cipher.AEAD
	now  func() time.Time
}

// NewCipher returns a Cipher for a [KeySize]-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return &Cipher{aead: aead, now: time.Now}, nil
}

// Encrypt seals plaintext into a token.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	buf := make([]byte, headerSize+nonceSize, headerSize+nonceSize+len(plaintext)+c.aead.Overhead())
	buf[0] = tokenVersion
	binary.BigEndian.PutUint64(buf[1:headerSize], uint64(c.now().Unix()))

	if _, err := rand.Read(buf[headerSize:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(buf, buf[headerSize:], []byte(plaintext), buf[:headerSize])
	return tokenEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by [Cipher.Encrypt].
//
// Every failure wraps [shared.ErrDecryption].
func (c *Cipher) Decrypt(token string) (string, error) {
	pt, _, err := c.open(token)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// IssuedAt returns when an authentic token was created.
func (c *Cipher) IssuedAt(token string) (time.Time, error) {
	_, issued, err := c.open(token)
	return issued, err
}

func (c *Cipher) open(token string) ([]byte, time.Time, error) {
	raw, err := tokenEncoding.DecodeString(token)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: malformed token", shared.ErrDecryption)
	}

	if len(raw) < headerSize+nonceSize+c.aead.Overhead() {
		return nil, time.Time{}, fmt.Errorf("%w: token too short", shared.ErrDecryption)
	}

	if raw[0] != tokenVersion {
		return nil, time.Time{}, fmt.Errorf("%w: unsupported token version %#x", shared.ErrDecryption, raw[0])
	}

	header := raw[:headerSize]
	nonce := raw[headerSize : headerSize+nonceSize]

	pt, err := c.aead.Open(nil, nonce, raw[headerSize+nonceSize:], header)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("%w: wrong key or corrupted token", shared.ErrDecryption)
	}

	issued := time.Unix(int64(binary.BigEndian.Uint64(header[1:])), 0)
	return pt, issued, nil
}
