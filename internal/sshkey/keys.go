package sshkey

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
)

const (
	privateKeyName = "vmbroker_key"
	publicKeyName  = "vmbroker_key.pub"
)

// KeyPair is a local SSH key pair whose public half is handed to
// providers at creation time.
type KeyPair struct {
	PrivateKeyPath string
	PublicKeyPath  string
	PublicKey      string
}

// GetOrCreate returns the key pair stored under keyDir, generating a new
// RSA pair on first use. An existing private key without its public half
// gets the public key rederived.
func GetOrCreate(keyDir string) (*KeyPair, error) {
	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create key directory: %w", err)
	}

	privatePath := filepath.Join(keyDir, privateKeyName)
	publicPath := filepath.Join(keyDir, publicKeyName)

	if _, err := os.Stat(privatePath); err == nil {
		if data, err := os.ReadFile(publicPath); err == nil {
			return &KeyPair{
				PrivateKeyPath: privatePath,
				PublicKeyPath:  publicPath,
				PublicKey:      string(data),
			}, nil
		}
		key, err := loadPrivateKey(privatePath)
		if err != nil {
			return nil, err
		}
		return writePublicKey(key, privatePath, publicPath)
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	block := &pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}
	if err := os.WriteFile(privatePath, pem.EncodeToMemory(block), 0600); err != nil {
		return nil, fmt.Errorf("failed to write private key: %w", err)
	}

	return writePublicKey(key, privatePath, publicPath)
}

// Cleanup removes the key files.
func (kp *KeyPair) Cleanup() error {
	if err := os.Remove(kp.PrivateKeyPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove private key: %w", err)
	}
	if err := os.Remove(kp.PublicKeyPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove public key: %w", err)
	}
	return nil
}

func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode private key PEM")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

func writePublicKey(key *rsa.PrivateKey, privatePath, publicPath string) (*KeyPair, error) {
	publicKey, err := ssh.NewPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	authorized := string(ssh.MarshalAuthorizedKey(publicKey))
	if err := os.WriteFile(publicPath, []byte(authorized), 0644); err != nil {
		return nil, fmt.Errorf("failed to write public key: %w", err)
	}

	return &KeyPair{
		PrivateKeyPath: privatePath,
		PublicKeyPath:  publicPath,
		PublicKey:      authorized,
	}, nil
}
