package config

import "github.com/ghx/cli/internal/credentials"

// insecureStore is the plaintext credential backend. Secrets live directly
// in the hosts.yml data: the host-level oauth_token field is the active
// slot and each user entry's oauth_token field is that account's per-user
// slot. Mutations take effect in memory; the owning registry operation
// persists them together with the metadata change.
type insecureStore struct {
	c *Config
}

// Set writes a secret into the config data. Callers must hold c.mu.
func (s *insecureStore) Set(host, slot, secret string) error {
	e := s.c.ensureHost(host)
	if slot == credentials.ActiveSlot {
		e.OAuthToken = secret
		return nil
	}
	u := e.findUser(slot)
	if u == nil {
		u = &UserEntry{Username: slot}
		e.Users = append(e.Users, u)
	}
	u.OAuthToken = secret
	return nil
}

// Get reads a secret from the config data. Callers must hold c.mu.
func (s *insecureStore) Get(host, slot string) (string, error) {
	e, ok := s.c.hosts[host]
	if !ok {
		return "", nil
	}
	if slot == credentials.ActiveSlot {
		return e.OAuthToken, nil
	}
	if u := e.findUser(slot); u != nil {
		return u.OAuthToken, nil
	}
	return "", nil
}

// Delete clears a secret in the config data. Callers must hold c.mu.
func (s *insecureStore) Delete(host, slot string) error {
	e, ok := s.c.hosts[host]
	if !ok {
		return nil
	}
	if slot == credentials.ActiveSlot {
		e.OAuthToken = ""
		return nil
	}
	if u := e.findUser(slot); u != nil {
		u.OAuthToken = ""
	}
	return nil
}

// Source identifies the plaintext backend in status output and token lookups.
func (s *insecureStore) Source() string {
	return "config"
}
