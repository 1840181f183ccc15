package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// HashAPIKey hashes a plain text API key for storage in API_KEY_HASH
func HashAPIKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("api key must not be empty")
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}
	return string(bytes), nil
}

// CheckAPIKey checks if a plain text API key matches a bcrypt hash
func CheckAPIKey(key, hash string) bool {
	if key == "" || hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(key)))
	return err == nil
}
