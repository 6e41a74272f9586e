// Package config owns the persistent state of the CLI: global options in
// config.yml and the per-host account registry in hosts.yml. A single
// Config value guards all of it behind one mutex; commands receive the
// shared handle instead of reaching for process-wide state.
//
// Mutations within one process are serialized by that mutex. Concurrent
// invocations of the CLI are not coordinated; the last process to write
// the files wins.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ghx/cli/internal/credentials"
	"github.com/ghx/cli/internal/ghinstance"
)

const (
	configFile = "config.yml"
	hostsFile  = "hosts.yml"
)

// Config is the lock-guarded configuration and account registry handle.
type Config struct {
	mu          sync.Mutex
	dir         string
	options     *optionsData
	hosts       map[string]*HostEntry
	secureStore credentials.Store
}

// optionsData is the config.yml schema.
type optionsData struct {
	GitProtocol string `yaml:"git_protocol,omitempty"`
	Prompt      string `yaml:"prompt,omitempty"`
	Editor      string `yaml:"editor,omitempty"`
	Pager       string `yaml:"pager,omitempty"`
	Browser     string `yaml:"browser,omitempty"`
}

// HostEntry is the hosts.yml record for one host. OAuthToken is only
// populated for accounts stored insecurely; it mirrors the active account.
type HostEntry struct {
	ActiveUser  string       `yaml:"user,omitempty"`
	GitProtocol string       `yaml:"git_protocol,omitempty"`
	OAuthToken  string       `yaml:"oauth_token,omitempty"`
	Users       []*UserEntry `yaml:"users,omitempty"`
}

// UserEntry records one account on a host. Users are kept in login order;
// the last entry is the most recently logged in. OAuthToken is set only
// when SecureStorage is false.
type UserEntry struct {
	Username      string `yaml:"username"`
	SecureStorage bool   `yaml:"secure_storage"`
	OAuthToken    string `yaml:"oauth_token,omitempty"`
}

// Dir returns the configuration directory, honoring the GHX_CONFIG_DIR
// override.
func Dir() (string, error) {
	if dir := os.Getenv("GHX_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(base, "ghx"), nil
}

// Load reads configuration from the default directory, creating an empty
// in-memory state when no files exist yet.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom reads configuration from a specific directory.
func LoadFrom(dir string) (*Config, error) {
	c := NewBlank(dir)

	if err := readYAML(filepath.Join(dir, configFile), c.options); err != nil {
		return nil, err
	}
	if err := readYAML(filepath.Join(dir, hostsFile), &c.hosts); err != nil {
		return nil, err
	}
	if c.hosts == nil {
		c.hosts = map[string]*HostEntry{}
	}
	return c, nil
}

// NewBlank returns an empty configuration rooted at dir, without touching
// the filesystem until the first write.
func NewBlank(dir string) *Config {
	return &Config{
		dir:         dir,
		options:     &optionsData{},
		hosts:       map[string]*HostEntry{},
		secureStore: credentials.NewKeyringStore(),
	}
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// Write persists both configuration files.
func (c *Config) Write() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write()
}

// write persists state to disk. Callers must hold c.mu.
func (c *Config) write() error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", c.dir, err)
	}

	optData, err := yaml.Marshal(c.options)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, configFile), optData, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configFile, err)
	}

	hostData, err := yaml.Marshal(c.hosts)
	if err != nil {
		return fmt.Errorf("failed to marshal hosts: %w", err)
	}
	if err := os.WriteFile(filepath.Join(c.dir, hostsFile), hostData, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", hostsFile, err)
	}
	return nil
}

// Get returns an option value, checking the GHX_<KEY> environment variable,
// then the host scope, then the global scope.
func (c *Config) Get(host, key string) string {
	if v := os.Getenv("GHX_" + strings.ToUpper(key)); v != "" {
		return v
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if host != "" {
		if e, ok := c.hosts[ghinstance.NormalizeHostname(host)]; ok {
			if key == "git_protocol" && e.GitProtocol != "" {
				return e.GitProtocol
			}
		}
	}

	switch key {
	case "git_protocol":
		return c.options.GitProtocol
	case "prompt":
		return c.options.Prompt
	case "editor":
		return c.options.Editor
	case "pager":
		return c.options.Pager
	case "browser":
		return c.options.Browser
	}
	return ""
}

// GetOrDefault returns an option value, falling back to its default.
func (c *Config) GetOrDefault(host, key string) string {
	if v := c.Get(host, key); v != "" {
		return v
	}
	return defaultFor(key)
}

// Set updates an option value. An empty host targets the global scope.
// The change is not persisted until Write is called.
func (c *Config) Set(host, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if host != "" {
		if key != "git_protocol" {
			return fmt.Errorf("invalid host-scoped key %q", key)
		}
		e := c.ensureHost(ghinstance.NormalizeHostname(host))
		e.GitProtocol = value
		return nil
	}

	switch key {
	case "git_protocol":
		c.options.GitProtocol = value
	case "prompt":
		c.options.Prompt = value
	case "editor":
		c.options.Editor = value
	case "pager":
		c.options.Pager = value
	case "browser":
		c.options.Browser = value
	default:
		return fmt.Errorf("invalid config key %q", key)
	}
	return nil
}

// GitProtocol returns the git protocol preference for a host, defaulting
// to https.
func (c *Config) GitProtocol(host string) string {
	return c.GetOrDefault(host, "git_protocol")
}

// PromptDisabled reports whether interactive prompting has been turned off
// via configuration or the GHX_PROMPT environment variable.
func (c *Config) PromptDisabled() bool {
	return c.GetOrDefault("", "prompt") == "disabled"
}

func defaultFor(key string) string {
	switch key {
	case "git_protocol":
		return "https"
	case "prompt":
		return "enabled"
	}
	return ""
}

// ensureHost returns the entry for a normalized host, creating it when
// absent. Callers must hold c.mu.
func (c *Config) ensureHost(host string) *HostEntry {
	e, ok := c.hosts[host]
	if !ok {
		e = &HostEntry{}
		c.hosts[host] = e
	}
	return e
}

// Hosts returns all hosts with at least one account, sorted.
func (c *Config) Hosts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	hosts := make([]string, 0, len(c.hosts))
	for host, e := range c.hosts {
		if len(e.Users) > 0 {
			hosts = append(hosts, host)
		}
	}
	sort.Strings(hosts)
	return hosts
}

func (e *HostEntry) findUser(username string) *UserEntry {
	for _, u := range e.Users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (e *HostEntry) removeUser(username string) {
	users := e.Users[:0]
	for _, u := range e.Users {
		if u.Username != username {
			users = append(users, u)
		}
	}
	e.Users = users
}
