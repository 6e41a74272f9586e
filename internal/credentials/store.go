// Package credentials defines the storage contract for account secrets.
//
// Secrets are addressed by (host, slot). The slot is either a username,
// holding the durable token for that account, or ActiveSlot, mirroring
// whichever account is currently selected for the host. Two backends exist:
// the OS keychain (secure) implemented here, and plaintext-in-config
// (insecure) implemented by the config package. Callers dispatch through
// the Store interface and never branch on the backend type.
package credentials

import (
	"errors"
	"fmt"

	"github.com/ghx/cli/internal/ghinstance"
	"github.com/ghx/cli/internal/keyring"
)

// ActiveSlot addresses the secret of the currently selected account.
const ActiveSlot = ""

// servicePrefix namespaces keychain entries owned by this tool.
const servicePrefix = "ghx:"

// Store persists and retrieves one secret per (host, slot).
type Store interface {
	// Set writes the secret for a slot, replacing any previous value.
	Set(host, slot, secret string) error
	// Get returns the secret for a slot, or "" with a nil error when the
	// slot is empty.
	Get(host, slot string) (string, error)
	// Delete removes the secret for a slot. Removing an empty slot is a no-op.
	Delete(host, slot string) error
	// Source names the backend for user-facing reporting.
	Source() string
}

// KeyringStore is the secure backend, persisting secrets in the OS-native
// keychain. Every call inherits the keyring package's three-second deadline.
type KeyringStore struct{}

// NewKeyringStore returns the OS keychain backend.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{}
}

func service(host string) string {
	return servicePrefix + ghinstance.NormalizeHostname(host)
}

// Set stores a secret in the keychain.
func (s *KeyringStore) Set(host, slot, secret string) error {
	if err := keyring.Set(service(host), slot, secret); err != nil {
		return fmt.Errorf("failed to store secret in keyring: %w", err)
	}
	return nil
}

// Get retrieves a secret from the keychain. A missing entry yields "" and
// a nil error; timeouts and other keychain failures are returned as-is.
func (s *KeyringStore) Get(host, slot string) (string, error) {
	secret, err := keyring.Get(service(host), slot)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read secret from keyring: %w", err)
	}
	return secret, nil
}

// Delete removes a secret from the keychain.
func (s *KeyringStore) Delete(host, slot string) error {
	if err := keyring.Delete(service(host), slot); err != nil {
		return fmt.Errorf("failed to remove secret from keyring: %w", err)
	}
	return nil
}

// Source identifies the keychain backend in status output and token lookups.
func (s *KeyringStore) Source() string {
	return "keyring"
}
