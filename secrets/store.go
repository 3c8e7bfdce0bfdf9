// Package secrets stores the endpoint token in the OS keychain/credential
// store, with an encrypted file backend as the fallback on platforms without
// a native keyring.
package secrets

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "querypad"

const tokenKey = "endpoint_token"

// ErrNotFound is returned when no token has been stored.
var ErrNotFound = errors.New("secrets: token not found")

// Store wraps the OS keyring for the single endpoint token.
type Store struct {
	ring keyring.Keyring
}

// Open opens the OS keyring, falling back to a file backend rooted in the
// user config directory when no native backend is available.
func Open() (*Store, error) {
	fileDir, _ := os.UserConfigDir()
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir: filepath.Join(fileDir, ServiceName, "keyring"),
		FilePasswordFunc: func(string) (string, error) {
			return ServiceName, nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &Store{ring: ring}, nil
}

// SetToken stores the endpoint bearer token.
func (s *Store) SetToken(token string) error {
	return s.ring.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: ServiceName + " endpoint token",
	})
}

// Token returns the stored endpoint token, ErrNotFound when absent.
func (s *Store) Token() (string, error) {
	item, err := s.ring.Get(tokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(item.Data), nil
}

// DeleteToken removes the stored token. Deleting an absent token is not an
// error.
func (s *Store) DeleteToken() error {
	err := s.ring.Remove(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}
