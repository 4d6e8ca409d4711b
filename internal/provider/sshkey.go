package provider

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// keyObjectName derives a stable provider-side name for an SSH public
// key, so that repeated creations with the same local key reconcile onto
// one key object instead of accumulating duplicates.
func keyObjectName(publicKey string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(publicKey)))
	return fmt.Sprintf("vmbroker-%s", hex.EncodeToString(sum[:])[:12])
}

// sshFingerprint computes the legacy MD5 colon fingerprint of an
// OpenSSH-format public key, the format DigitalOcean keys are indexed by.
func sshFingerprint(publicKey string) (string, error) {
	parsed, _, _, _, err := ssh.ParseAuthorizedKey([]byte(publicKey))
	if err != nil {
		return "", fmt.Errorf("failed to parse public key: %w", err)
	}
	return ssh.FingerprintLegacyMD5(parsed), nil
}
