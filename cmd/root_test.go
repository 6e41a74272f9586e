package cmd

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghx/cli/internal/config"
	"github.com/ghx/cli/internal/keyring"
	"github.com/ghx/cli/internal/prompter"
)

// executeCommand executes the root command and captures its output.
func executeCommand(t *testing.T, args ...string) (output string, err error) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stdout = w
	os.Stderr = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	defer func() {
		w.Close()
		os.Stdout = oldStdout
		os.Stderr = oldStderr
		output = <-outC
	}()

	rootCmd.SetArgs(args)
	err = rootCmd.Execute()

	return output, err
}

// setupTestConfig points the CLI at a throwaway config directory and
// returns a handle for seeding accounts into it.
func setupTestConfig(t *testing.T) *config.Config {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()
	t.Setenv("GHX_CONFIG_DIR", dir)
	t.Setenv("GHX_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "")

	cfg, err := config.LoadFrom(dir)
	require.NoError(t, err)
	return cfg
}

// resetFlags clears the package-level flag state leaked between tests.
func resetFlags() {
	logoutHostname, logoutUser = "", ""
	switchHostname, switchUser = "", ""
	statusHostname, statusShowToken = "", false
	tokenHostname, tokenUser = "", ""
	setupGitHostname, setupGitForce = "", false
	loginHostname, loginGitProtocol = "", ""
	loginScopes = nil
	loginWithToken, loginWeb, loginClipboard, loginInsecureStorage = false, false, false, false
	refreshHostname, refreshUser = "", ""
	refreshAddScopes, refreshRemoveScopes = nil, nil
	refreshResetScopes, refreshClipboard, refreshInsecure = false, false, false
}

func TestVersionCommand(t *testing.T) {
	resetFlags()
	output, err := executeCommand(t, "version")
	assert.NoError(t, err)
	assert.Contains(t, output, "ghx v")
}

func TestAuthTokenCommand(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "ghp_abc", "https", false))

	output, err := executeCommand(t, "auth", "token")
	require.NoError(t, err)
	assert.Equal(t, "ghp_abc\n", output)
}

func TestAuthTokenCommandUserFlag(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "t1", "https", false))
	require.NoError(t, cfg.Login("github.com", "hubot", "t2", "https", false))

	output, err := executeCommand(t, "auth", "token", "--user", "monalisa")
	require.NoError(t, err)
	assert.Equal(t, "t1\n", output)
}

func TestAuthTokenCommandEnvOverride(t *testing.T) {
	resetFlags()
	setupTestConfig(t)
	t.Setenv("GHX_TOKEN", "env-token")

	output, err := executeCommand(t, "auth", "token")
	require.NoError(t, err)
	assert.Equal(t, "env-token\n", output)
}

func TestAuthTokenCommandNotLoggedIn(t *testing.T) {
	resetFlags()
	setupTestConfig(t)

	_, err := executeCommand(t, "auth", "token")
	assert.ErrorIs(t, err, config.ErrNoToken)
}

func TestAuthStatusCommand(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "ghp_secret123", "https", false))

	output, err := executeCommand(t, "auth", "status")
	require.NoError(t, err)
	assert.Contains(t, output, "Logged in to github.com account monalisa (config)")
	assert.Contains(t, output, "Active account: true")
	assert.Contains(t, output, "ghp_*********")
	assert.NotContains(t, output, "ghp_secret123")
}

func TestAuthStatusCommandShowToken(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "ghp_secret123", "https", false))

	output, err := executeCommand(t, "auth", "status", "--show-token")
	require.NoError(t, err)
	assert.Contains(t, output, "ghp_secret123")
}

func TestAuthStatusCommandEnvToken(t *testing.T) {
	resetFlags()
	setupTestConfig(t)
	t.Setenv("GITHUB_TOKEN", "env-token")

	output, err := executeCommand(t, "auth", "status", "--hostname", "github.com")
	require.NoError(t, err)
	assert.Contains(t, output, "GITHUB_TOKEN")
	assert.Contains(t, output, "cannot be modified by ghx")
}

func TestAuthStatusCommandNotLoggedIn(t *testing.T) {
	resetFlags()
	setupTestConfig(t)

	_, err := executeCommand(t, "auth", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in")
}

func TestAuthLogoutCommand(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "t1", "https", false))
	require.NoError(t, cfg.Login("github.com", "hubot", "t2", "https", false))

	output, err := executeCommand(t, "auth", "logout", "--user", "hubot")
	require.NoError(t, err)
	assert.Contains(t, output, "Logged out of github.com account hubot")
	assert.Contains(t, output, "Switched active account for github.com to monalisa")

	reloaded, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"monalisa"}, reloaded.UsersForHost("github.com"))
}

func TestAuthLogoutCommandAmbiguous(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "t1", "https", false))
	require.NoError(t, cfg.Login("github.com", "hubot", "t2", "https", false))

	// Stdin is not a terminal here, so ambiguity cannot be prompted away.
	_, err := executeCommand(t, "auth", "logout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple accounts matched")
}

func TestAuthLogoutCommandBlockedByEnvToken(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "t1", "https", false))
	t.Setenv("GHX_TOKEN", "env-token")

	_, err := executeCommand(t, "auth", "logout", "--user", "monalisa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GHX_TOKEN")
}

func TestAuthSwitchCommandTwoAccounts(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "t1", "https", false))
	require.NoError(t, cfg.Login("github.com", "hubot", "t2", "https", false))

	// With exactly two accounts the inactive one is implied.
	output, err := executeCommand(t, "auth", "switch")
	require.NoError(t, err)
	assert.Contains(t, output, "Switched active account for github.com to monalisa")

	reloaded, err := config.Load()
	require.NoError(t, err)
	user, ok := reloaded.ActiveUser("github.com")
	require.True(t, ok)
	assert.Equal(t, "monalisa", user)
}

func TestAuthLogoutCommandUnknownUser(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "t1", "https", false))

	_, err := executeCommand(t, "auth", "logout", "--user", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no accounts matched")
}

func TestConfirmLogout(t *testing.T) {
	account := accountCandidate{host: "github.com", user: "monalisa"}

	stub := &prompter.Stub{ConfirmAnswers: []bool{false}}
	confirmed, err := confirmLogout(stub, account)
	require.NoError(t, err)
	assert.False(t, confirmed)

	stub = &prompter.Stub{ConfirmAnswers: []bool{true}}
	confirmed, err = confirmLogout(stub, account)
	require.NoError(t, err)
	assert.True(t, confirmed)
}

func TestAuthSwitchCommandUnknownUser(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "t1", "https", false))

	_, err := executeCommand(t, "auth", "switch", "--user", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no accounts matched")
}

func TestAuthLoginCommandFlagConflicts(t *testing.T) {
	resetFlags()
	setupTestConfig(t)

	_, err := executeCommand(t, "auth", "login", "--with-token", "--web")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be used together")

	resetFlags()
	_, err = executeCommand(t, "auth", "login", "--with-token", "--scopes", "gist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be used together")

	resetFlags()
	_, err = executeCommand(t, "auth", "login", "--git-protocol", "ftp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid git protocol")
}

func TestAuthLoginCommandBlockedByEnvToken(t *testing.T) {
	resetFlags()
	setupTestConfig(t)
	t.Setenv("GHX_TOKEN", "env-token")

	_, err := executeCommand(t, "auth", "login", "--with-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GHX_TOKEN")
}

func TestSetupGitCommand(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "t1", "https", false))

	var calls [][]string
	oldExecGit := execGit
	execGit = func(args ...string) error {
		calls = append(calls, args)
		return nil
	}
	defer func() { execGit = oldExecGit }()

	output, err := executeCommand(t, "auth", "setup-git")
	require.NoError(t, err)
	assert.Contains(t, output, "Configured git credential helper for github.com")

	require.Len(t, calls, 2)
	assert.Equal(t, []string{"config", "--global", "--replace-all", "credential.https://github.com/helper", ""}, calls[0])
	assert.Equal(t, []string{"config", "--global", "--add", "credential.https://github.com/helper", "!ghx auth git-credential"}, calls[1])
}

func TestSetupGitCommandForceRequiresHostname(t *testing.T) {
	resetFlags()
	setupTestConfig(t)

	_, err := executeCommand(t, "auth", "setup-git", "--force")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force must be used with --hostname")
}

func TestSetupGitCommandNotLoggedIn(t *testing.T) {
	resetFlags()
	setupTestConfig(t)

	_, err := executeCommand(t, "auth", "setup-git", "--hostname", "ghe.example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not logged in to ghe.example.com")

	var calls [][]string
	oldExecGit := execGit
	execGit = func(args ...string) error {
		calls = append(calls, args)
		return nil
	}
	defer func() { execGit = oldExecGit }()

	resetFlags()
	_, err = executeCommand(t, "auth", "setup-git", "--hostname", "ghe.example.com", "--force")
	require.NoError(t, err)
	assert.Len(t, calls, 2)
}

func TestAuthRefreshCommandUnknownAccount(t *testing.T) {
	resetFlags()
	setupTestConfig(t)

	_, err := executeCommand(t, "auth", "refresh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no accounts matched")
}

func TestAuthRefreshCommandResetScopesConflicts(t *testing.T) {
	resetFlags()
	setupTestConfig(t)

	_, err := executeCommand(t, "auth", "refresh", "--reset-scopes", "--scopes", "gist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined")
}

func TestAuthRefreshCommandBlockedByEnvToken(t *testing.T) {
	resetFlags()
	cfg := setupTestConfig(t)
	require.NoError(t, cfg.Login("github.com", "monalisa", "t1", "https", false))
	t.Setenv("GHX_TOKEN", "env-token")

	_, err := executeCommand(t, "auth", "refresh", "--user", "monalisa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GHX_TOKEN")
}

func TestComputeRefreshScopes(t *testing.T) {
	scopes, err := computeRefreshScopes(
		[]string{"repo", "read:org", "gist"},
		[]string{"workflow"},
		[]string{"gist"},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"repo", "read:org", "workflow"}, scopes)

	// The minimum scopes are always requested, even when the current token
	// somehow lacks them.
	scopes, err = computeRefreshScopes([]string{"gist"}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"repo", "read:org", "gist"}, scopes)

	_, err = computeRefreshScopes([]string{"repo", "read:org"}, nil, []string{"repo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be removed")
}

func TestDisplayToken(t *testing.T) {
	assert.Equal(t, "ghp_****", displayToken("ghp_1234"))
	assert.Equal(t, "********", displayToken("12345678"))
}

func TestMergeScopes(t *testing.T) {
	merged := mergeScopes([]string{"repo", "read:org"}, []string{"gist", "repo", "workflow"})
	assert.Equal(t, []string{"repo", "read:org", "gist", "workflow"}, merged)
}
