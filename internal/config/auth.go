package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ghx/cli/internal/credentials"
	"github.com/ghx/cli/internal/debuglog"
	"github.com/ghx/cli/internal/ghinstance"
)

var logger = debuglog.New("config")

// ErrNoToken indicates that no credential could be resolved for a host,
// from the environment or from either storage backend.
var ErrNoToken = errors.New("no oauth token found")

// NotLoggedInError indicates that a host or a (host, account) pair is not
// present in the registry.
type NotLoggedInError struct {
	Host string
	User string
}

func (e *NotLoggedInError) Error() string {
	if e.User == "" {
		return fmt.Sprintf("not logged in to %s", e.Host)
	}
	return fmt.Sprintf("not logged in to %s account %s", e.Host, e.User)
}

// EnvToken returns the environment-variable token override for a host, if
// set. Enterprise hosts consult the enterprise-branded variables; cloud and
// tenant hosts consult the generic ones. Overrides are read-only: they are
// never persisted and block credential mutations while present.
func EnvToken(host string) (token, varName string, ok bool) {
	vars := []string{"GHX_TOKEN", "GITHUB_TOKEN"}
	if ghinstance.IsEnterprise(host) {
		vars = []string{"GHX_ENTERPRISE_TOKEN", "GITHUB_ENTERPRISE_TOKEN"}
	}
	for _, v := range vars {
		if t := os.Getenv(v); t != "" {
			return t, v, true
		}
	}
	return "", "", false
}

// storeFor returns the credential backend owning an account's secrets.
// Callers never branch on the backend type beyond this selection.
func (c *Config) storeFor(u *UserEntry) credentials.Store {
	if u.SecureStorage {
		return c.secureStore
	}
	return &insecureStore{c}
}

// otherStore returns the backend an account does not use, for clearing
// stale secrets when ownership moves between backends.
func (c *Config) otherStore(u *UserEntry) credentials.Store {
	if u.SecureStorage {
		return &insecureStore{c}
	}
	return c.secureStore
}

// UsersForHost returns the accounts registered for a host, in login order
// (the last entry is the most recently logged in).
func (c *Config) UsersForHost(host string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.hosts[ghinstance.NormalizeHostname(host)]
	if !ok {
		return nil
	}
	users := make([]string, 0, len(e.Users))
	for _, u := range e.Users {
		users = append(users, u.Username)
	}
	return users
}

// ActiveUser returns the active account for a host, if any.
func (c *Config) ActiveUser(host string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.hosts[ghinstance.NormalizeHostname(host)]
	if !ok || e.ActiveUser == "" || len(e.Users) == 0 {
		return "", false
	}
	return e.ActiveUser, true
}

// ActiveToken resolves the token consulted by default for a host. An
// environment override wins and is reported with the variable name as its
// source; otherwise the active slot of the owning backend is consulted and
// the source is "keyring" or "config". ErrNoToken is returned when neither
// yields a credential; keychain timeouts and I/O failures propagate as-is.
func (c *Config) ActiveToken(host string) (token, source string, err error) {
	host = ghinstance.NormalizeHostname(host)
	if t, v, ok := EnvToken(host); ok {
		return t, v, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.hosts[host]
	if !ok {
		return "", "", ErrNoToken
	}
	if u := e.findUser(e.ActiveUser); u != nil {
		st := c.storeFor(u)
		t, err := st.Get(host, credentials.ActiveSlot)
		if err != nil {
			return "", "", err
		}
		if t != "" {
			return t, st.Source(), nil
		}
	}
	// No usable user entry; the plaintext active slot may still hold a
	// token written by an older version.
	if e.OAuthToken != "" {
		return e.OAuthToken, "config", nil
	}
	return "", "", ErrNoToken
}

// TokenForUser returns the durable per-user token for a specific account.
func (c *Config) TokenForUser(host, username string) (token, source string, err error) {
	host = ghinstance.NormalizeHostname(host)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.hosts[host]
	if !ok {
		return "", "", ErrNoToken
	}
	u := e.findUser(username)
	if u == nil {
		return "", "", ErrNoToken
	}
	st := c.storeFor(u)
	t, err := st.Get(host, u.Username)
	if err != nil {
		return "", "", err
	}
	if t == "" {
		return "", "", ErrNoToken
	}
	return t, st.Source(), nil
}

// Login registers an account for a host and makes it the active one. The
// secret is written to the chosen backend's per-user slot and promoted to
// the active slot; any stale secret in the other backend is cleared. A
// re-login moves the account to the most-recent position.
func (c *Config) Login(host, username, token, gitProtocol string, secureStorage bool) error {
	host = ghinstance.NormalizeHostname(host)
	if host == "" {
		return fmt.Errorf("hostname cannot be empty")
	}
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.ensureHost(host)
	e.removeUser(username)
	u := &UserEntry{Username: username, SecureStorage: secureStorage}
	e.Users = append(e.Users, u)

	st := c.storeFor(u)
	if err := st.Set(host, u.Username, token); err != nil {
		return err
	}
	if err := st.Set(host, credentials.ActiveSlot, token); err != nil {
		return err
	}

	// The account may previously have lived in the other backend; clear
	// whatever it left behind. Best effort, a locked keychain must not
	// fail the login.
	other := c.otherStore(u)
	if err := other.Delete(host, u.Username); err != nil {
		logger.WithError(err).Debug("could not clear stale per-user secret")
	}
	if err := other.Delete(host, credentials.ActiveSlot); err != nil {
		logger.WithError(err).Debug("could not clear stale active secret")
	}

	e.ActiveUser = username
	if gitProtocol != "" {
		e.GitProtocol = gitProtocol
	}
	return c.write()
}

// Logout removes an account and its per-user secret. When the active
// account is removed and others remain, the most recently logged-in
// remainder is promoted; when none remain, the host is dropped entirely.
func (c *Config) Logout(host, username string) error {
	host = ghinstance.NormalizeHostname(host)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.hosts[host]
	if !ok || len(e.Users) == 0 {
		return &NotLoggedInError{Host: host}
	}
	u := e.findUser(username)
	if u == nil {
		return &NotLoggedInError{Host: host, User: username}
	}
	wasActive := e.ActiveUser == username

	st := c.storeFor(u)
	if err := st.Delete(host, u.Username); err != nil {
		return err
	}
	e.removeUser(username)

	if wasActive {
		if err := st.Delete(host, credentials.ActiveSlot); err != nil {
			return err
		}
		if len(e.Users) > 0 {
			next := e.Users[len(e.Users)-1]
			if err := c.makeActive(host, e, next); err != nil {
				return err
			}
			logger.WithField("host", host).WithField("user", next.Username).
				Debug("promoted account after logout")
		} else {
			delete(c.hosts, host)
		}
	} else if len(e.Users) == 0 {
		delete(c.hosts, host)
	}
	return c.write()
}

// SwitchUser changes the active account for a host to an already
// registered account, copying its durable secret into the active slot.
// Switching to the account that is already active is a harmless no-op.
func (c *Config) SwitchUser(host, username string) error {
	host = ghinstance.NormalizeHostname(host)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.hosts[host]
	if !ok || len(e.Users) == 0 {
		return &NotLoggedInError{Host: host}
	}
	u := e.findUser(username)
	if u == nil {
		return &NotLoggedInError{Host: host, User: username}
	}
	if err := c.makeActive(host, e, u); err != nil {
		return err
	}
	return c.write()
}

// makeActive copies an account's per-user secret into the active slot of
// its backend, clears the other backend's active slot, and moves the
// active pointer. Callers must hold c.mu.
func (c *Config) makeActive(host string, e *HostEntry, u *UserEntry) error {
	st := c.storeFor(u)
	token, err := st.Get(host, u.Username)
	if err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("no stored credential for %s account %s", host, u.Username)
	}
	if err := st.Set(host, credentials.ActiveSlot, token); err != nil {
		return err
	}
	if err := c.otherStore(u).Delete(host, credentials.ActiveSlot); err != nil {
		logger.WithError(err).Debug("could not clear previous active secret")
	}
	e.ActiveUser = u.Username
	return nil
}
