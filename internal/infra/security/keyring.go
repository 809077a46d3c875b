package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"telegram-ai-relay/internal/domain"
)

// EnvEncryptionKey overrides both config and key file when set.
const EnvEncryptionKey = "RELAY_ENCRYPTION_KEY"

const keySize = 32

// LoadOrCreateKey resolves the process-wide encryption key: environment
// first, then the configured value, then the key file; if none exist a new
// key is generated and persisted to the key file so it survives restarts.
// The key file lives outside any message-bearing storage.
func LoadOrCreateKey(configured, keyFile string) ([]byte, error) {
	if v := os.Getenv(EnvEncryptionKey); v != "" {
		return decodeKey(v)
	}
	if configured != "" {
		return decodeKey(configured)
	}
	if b, err := os.ReadFile(keyFile); err == nil {
		return decodeKey(strings.TrimSpace(string(b)))
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(keyFile, []byte(encoded+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("persist key to %s: %w", keyFile, err)
	}
	return key, nil
}

// decodeKey accepts either a base64-encoded key or a raw 16/24/32-byte string.
func decodeKey(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		if n := len(b); n == 16 || n == 24 || n == 32 {
			return b, nil
		}
	}
	if n := len(s); n == 16 || n == 24 || n == 32 {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("%w: must decode to 16, 24, or 32 bytes", domain.ErrKeyMissing)
}
