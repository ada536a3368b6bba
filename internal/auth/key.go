package auth

import (
	"crypto/rand"
	"encoding/hex"

	"emperror.dev/errors"
	"golang.org/x/crypto/bcrypt"
)

// MinKeyLength is the shortest manage key HashKey accepts.
const MinKeyLength = 12

var (
	ErrInvalidKey  = errors.New("invalid manage key")
	ErrKeyTooShort = errors.New("manage key must be at least 12 characters")
	ErrKeyTooLong  = errors.New("manage key exceeds maximum length of 72 bytes")
)

// HashKey creates the bcrypt hash stored in MANAGE_KEY_HASH.
func HashKey(key string, cost int) (string, error) {
	if len(key) < MinKeyLength {
		return "", ErrKeyTooShort
	}
	// bcrypt ignores everything after 72 bytes
	if len(key) > 72 {
		return "", ErrKeyTooLong
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash manage key")
	}
	return string(hash), nil
}

// CheckKey compares a presented key with the configured hash.
func CheckKey(key, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidKey
	}
	return err
}

// GenerateKey returns a random manage key.
func GenerateKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateSessionSecret creates a random 32-byte secret for CSRF tokens.
func GenerateSessionSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
