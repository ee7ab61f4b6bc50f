// Package auth provides the single-admin authentication for the
// dashboard: Argon2id password verification and PASETO session tokens.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PASETO v4 requires a 256-bit symmetric key.
	keyLength = 32
	// Hex-encoded length (32 bytes = 64 hex characters).
	keyHexLength = 64
)

// LoadOrGenerateKey returns the hex-encoded PASETO symmetric key stored
// at <dataPath>/auth.key, generating and persisting a fresh one when the
// file does not exist.
func LoadOrGenerateKey(dataPath string) (string, error) {
	keyPath := filepath.Join(dataPath, "auth.key")

	if keyBytes, err := os.ReadFile(keyPath); err == nil {
		keyHex := strings.TrimSpace(string(keyBytes))
		if len(keyHex) != keyHexLength {
			return "", fmt.Errorf("invalid auth key length: expected %d hex chars, got %d", keyHexLength, len(keyHex))
		}
		if _, err := hex.DecodeString(keyHex); err != nil {
			return "", fmt.Errorf("invalid auth key format: not valid hex: %w", err)
		}
		return keyHex, nil
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate auth key: %w", err)
	}
	keyHex := hex.EncodeToString(key)

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(keyHex), 0o600); err != nil {
		return "", fmt.Errorf("failed to save auth key: %w", err)
	}

	return keyHex, nil
}
