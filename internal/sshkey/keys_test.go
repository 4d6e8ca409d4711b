package sshkey

import (
	"os"
	"strings"
	"testing"
)

func TestGetOrCreateGeneratesPair(t *testing.T) {
	keyDir := t.TempDir()

	pair, err := GetOrCreate(keyDir)
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error = %v", err)
	}

	if !strings.HasPrefix(pair.PublicKey, "ssh-rsa ") {
		t.Errorf("public key does not look like an authorized key: %q", pair.PublicKey)
	}

	info, err := os.Stat(pair.PrivateKeyPath)
	if err != nil {
		t.Fatalf("private key missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("private key mode = %o, want 600", perm)
	}
	if _, err := os.Stat(pair.PublicKeyPath); err != nil {
		t.Errorf("public key missing: %v", err)
	}
}

func TestGetOrCreateReusesExistingPair(t *testing.T) {
	keyDir := t.TempDir()

	first, err := GetOrCreate(keyDir)
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error = %v", err)
	}
	second, err := GetOrCreate(keyDir)
	if err != nil {
		t.Fatalf("GetOrCreate() second call unexpected error = %v", err)
	}
	if first.PublicKey != second.PublicKey {
		t.Error("second call regenerated the key pair")
	}
}

func TestGetOrCreateRederivesPublicKey(t *testing.T) {
	keyDir := t.TempDir()

	first, err := GetOrCreate(keyDir)
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error = %v", err)
	}
	if err := os.Remove(first.PublicKeyPath); err != nil {
		t.Fatalf("failed to remove public key: %v", err)
	}

	second, err := GetOrCreate(keyDir)
	if err != nil {
		t.Fatalf("GetOrCreate() after public-key loss unexpected error = %v", err)
	}
	if first.PublicKey != second.PublicKey {
		t.Error("rederived public key differs from the original")
	}
}

func TestCleanupRemovesFiles(t *testing.T) {
	keyDir := t.TempDir()

	pair, err := GetOrCreate(keyDir)
	if err != nil {
		t.Fatalf("GetOrCreate() unexpected error = %v", err)
	}
	if err := pair.Cleanup(); err != nil {
		t.Fatalf("Cleanup() unexpected error = %v", err)
	}
	if _, err := os.Stat(pair.PrivateKeyPath); !os.IsNotExist(err) {
		t.Error("private key survived Cleanup()")
	}

	// Cleaning up twice is fine.
	if err := pair.Cleanup(); err != nil {
		t.Errorf("second Cleanup() = %v", err)
	}
}
