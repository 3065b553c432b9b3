package vault

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/spool/internal/shared"
	"golang.org/x/crypto/scrypt"
)

const (
	keyFormatVersion = 1

	kdfNone   = "none"
	kdfScrypt = "scrypt"

	checkPlaintext = "spool-key-check"
)

// keyFile is the on-disk JSON structure holding either a raw key or the KDF parameters to derive one.
type keyFile struct {
	V     int    `json:"v"`
	KDF   string `json:"kdf"`
	Key   []byte `json:"key,omitempty"`
	Salt  []byte `json:"salt,omitempty"`
	N     int    `json:"scrypt_N,omitempty"`
	R     int    `json:"scrypt_r,omitempty"`
	P     int    `json:"scrypt_p,omitempty"`
	Check string `json:"check,omitempty"`
}

// Tunables for scrypt key derivation.
var scryptParams = func() (N, r, p int) { return 1 << 15, 8, 1 }

// GenerateKey returns a fresh random [KeySize]-byte key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}

// LoadKey returns the store key described by the key file at path, creating the file on first use.
//
// A non-empty passphrase selects scrypt derivation; otherwise a random key is persisted in the file.
func LoadKey(path, passphrase string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return createKey(path, passphrase)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: key file %s: %v", shared.ErrInvalidConfig, path, err)
	}
	if kf.V > keyFormatVersion {
		return nil, fmt.Errorf("%w: unsupported key file version %d", shared.ErrInvalidConfig, kf.V)
	}

	switch kf.KDF {
	case kdfNone:
		if passphrase != "" {
			return nil, fmt.Errorf("%w: key file %s is not passphrase protected", shared.ErrInvalidConfig, path)
		}
		if len(kf.Key) != KeySize {
			return nil, fmt.Errorf("%w: key file %s holds a %d-byte key", shared.ErrInvalidConfig, path, len(kf.Key))
		}
		return kf.Key, nil

	case kdfScrypt:
		if passphrase == "" {
			return nil, fmt.Errorf("%w: key file %s is passphrase protected", shared.ErrPassphraseRequired, path)
		}
		key, err := scrypt.Key([]byte(passphrase), kf.Salt, kf.N, kf.R, kf.P, KeySize)
		if err != nil {
			return nil, fmt.Errorf("failed to derive key: %w", err)
		}
		if err := verifyKey(key, kf.Check); err != nil {
			return nil, err
		}
		return key, nil

	default:
		return nil, fmt.Errorf("%w: unknown kdf %q", shared.ErrInvalidConfig, kf.KDF)
	}
}

func createKey(path, passphrase string) ([]byte, error) {
	kf := keyFile{V: keyFormatVersion}
	var key []byte

	if passphrase == "" {
		k, err := GenerateKey()
		if err != nil {
			return nil, err
		}
		key = k
		kf.KDF = kdfNone
		kf.Key = k
	} else {
		salt := make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("failed to generate salt: %w", err)
		}
		N, r, p := scryptParams()
		k, err := scrypt.Key([]byte(passphrase), salt, N, r, p, KeySize)
		if err != nil {
			return nil, fmt.Errorf("failed to derive key: %w", err)
		}
		c, err := NewCipher(k)
		if err != nil {
			return nil, err
		}
		check, err := c.Encrypt(checkPlaintext)
		if err != nil {
			return nil, err
		}
		key = k
		kf.KDF = kdfScrypt
		kf.Salt, kf.N, kf.R, kf.P, kf.Check = salt, N, r, p, check
	}

	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := shared.WriteFileAtomic(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write key file: %w", err)
	}
	return key, nil
}

// verifyKey opens the check token with key; a failure means the passphrase is wrong.
func verifyKey(key []byte, check string) error {
	if check == "" {
		return nil
	}
	c, err := NewCipher(key)
	if err != nil {
		return err
	}
	pt, err := c.Decrypt(check)
	if err != nil || pt != checkPlaintext {
		return fmt.Errorf("%w: wrong passphrase", shared.ErrDecryption)
	}
	return nil
}
