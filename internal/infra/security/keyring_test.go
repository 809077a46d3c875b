package security

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreateKeyEnvWins(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")
	t.Setenv(EnvEncryptionKey, base64.StdEncoding.EncodeToString(key))

	got, err := LoadOrCreateKey("some-other-configured-value-1234", "ignored")
	if err != nil {
		t.Fatalf("LoadOrCreateKey: %v", err)
	}
	if string(got) != string(key) {
		t.Fatalf("env key not preferred")
	}
}

func TestLoadOrCreateKeyFromConfig(t *testing.T) {
	t.Setenv(EnvEncryptionKey, "")

	got, err := LoadOrCreateKey("0123456789abcdef", filepath.Join(t.TempDir(), "key"))
	if err != nil {
		t.Fatalf("LoadOrCreateKey: %v", err)
	}
	if len(got) != 16 {
		t.Fatalf("key length = %d, want raw 16-byte key", len(got))
	}
}

func TestLoadOrCreateKeyGeneratesAndPersists(t *testing.T) {
	t.Setenv(EnvEncryptionKey, "")
	keyFile := filepath.Join(t.TempDir(), "relay_key")

	first, err := LoadOrCreateKey("", keyFile)
	if err != nil {
		t.Fatalf("LoadOrCreateKey: %v", err)
	}
	if len(first) != 32 {
		t.Fatalf("generated key length = %d, want 32", len(first))
	}
	if _, err := os.Stat(keyFile); err != nil {
		t.Fatalf("key file not persisted: %v", err)
	}

	// Second call must read back the same key, not generate a new one.
	second, err := LoadOrCreateKey("", keyFile)
	if err != nil {
		t.Fatalf("LoadOrCreateKey (reload): %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("key changed across restarts")
	}
}

func TestLoadOrCreateKeyRejectsBadValue(t *testing.T) {
	t.Setenv(EnvEncryptionKey, "short")

	if _, err := LoadOrCreateKey("", filepath.Join(t.TempDir(), "key")); err == nil {
		t.Fatalf("bad key value accepted")
	}
}
