package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghx/cli/internal/api"
	"github.com/ghx/cli/internal/authflow"
	"github.com/ghx/cli/internal/browser"
	"github.com/ghx/cli/internal/config"
	"github.com/ghx/cli/internal/ghinstance"
)

var (
	loginHostname        string
	loginScopes          []string
	loginWithToken       bool
	loginWeb             bool
	loginClipboard       bool
	loginGitProtocol     string
	loginInsecureStorage bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to a GitHub-compatible host",
	Long: `Authenticate with a GitHub-compatible host.

The default flow mints an OAuth token via the browser-based device
authorization grant. Alternatively, pass a pre-generated token on standard
input with --with-token; it must carry at least the repo and read:org scopes.

Tokens are stored in the OS keychain unless --insecure-storage writes them
to the configuration file in plain text.

Examples:
  # Interactive browser-based login
  ghx auth login

  # Log in to an enterprise server
  ghx auth login --hostname ghe.example.com

  # Provide a token on stdin
  ghx auth login --with-token < mytoken.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginWithToken && loginWeb {
			return fmt.Errorf("--with-token and --web cannot be used together")
		}
		if loginWithToken && loginClipboard {
			return fmt.Errorf("--with-token and --clipboard cannot be used together")
		}
		if loginWithToken && len(loginScopes) > 0 {
			return fmt.Errorf("--with-token and --scopes cannot be used together")
		}
		if loginGitProtocol != "" && loginGitProtocol != "https" && loginGitProtocol != "ssh" {
			return fmt.Errorf("invalid git protocol %q, expected https or ssh", loginGitProtocol)
		}
		return runLogin()
	},
}

func runLogin() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	interactive := isInteractive(cfg)

	host := loginHostname
	if host == "" {
		if interactive && !loginWithToken {
			h, err := promptForHostname()
			if err != nil {
				return err
			}
			host = h
		} else {
			host = ghinstance.DefaultHost
		}
	}
	host = normalizeHost(host)

	if err := ensureWritable(host); err != nil {
		return err
	}

	if loginWithToken {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read token from standard input: %w", err)
		}
		return loginWithTokenValue(cfg, host, strings.TrimSpace(string(data)))
	}

	if !interactive {
		if !loginWeb {
			return fmt.Errorf("--with-token required when not running interactively")
		}
		return loginViaWeb(cfg, host)
	}

	p := newPrompter()
	if loginGitProtocol == "" {
		idx, err := p.Select("What is your preferred protocol for git operations?", []string{"HTTPS", "SSH"})
		if err != nil {
			return err
		}
		loginGitProtocol = []string{"https", "ssh"}[idx]
	}

	if !loginWeb {
		idx, err := p.Select("How would you like to authenticate?", []string{
			"Login with a web browser",
			"Paste an authentication token",
		})
		if err != nil {
			return err
		}
		if idx == 1 {
			token, err := p.Password("Paste your authentication token")
			if err != nil {
				return err
			}
			return loginWithTokenValue(cfg, host, token)
		}
	}
	return loginViaWeb(cfg, host)
}

func promptForHostname() (string, error) {
	p := newPrompter()
	options := []string{"GitHub.com", "Other"}
	idx, err := p.Select("Where do you use GitHub?", options)
	if err != nil {
		return "", err
	}
	if idx == 0 {
		return ghinstance.DefaultHost, nil
	}
	return p.Input("Hostname", "")
}

func loginWithTokenValue(cfg *config.Config, host, token string) error {
	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	ctx := context.Background()
	client := api.NewClient(host)

	scopes, err := client.TokenScopes(ctx, token)
	if err != nil {
		return err
	}
	if err := api.CheckMinimumScopes(scopes); err != nil {
		return err
	}

	username, err := client.CurrentLogin(ctx, token)
	if err != nil {
		return err
	}

	if err := cfg.Login(host, username, token, loginGitProtocol, !loginInsecureStorage); err != nil {
		return err
	}
	fmt.Printf("✓ Logged in to %s account %s\n", host, username)
	return nil
}

func loginViaWeb(cfg *config.Config, host string) error {
	scopes := authflow.DefaultScopes
	if len(loginScopes) > 0 {
		scopes = mergeScopes(authflow.DefaultScopes, loginScopes)
	}

	b := browser.New(cfg.Get("", "browser"))
	flow := authflow.New(b, os.Stderr, loginClipboard)

	result, err := flow.Run(context.Background(), host, scopes)
	if err != nil {
		return fmt.Errorf("failed to authenticate via web browser: %w", err)
	}

	if err := cfg.Login(host, result.Username, result.Token, loginGitProtocol, !loginInsecureStorage); err != nil {
		return err
	}
	fmt.Printf("✓ Logged in to %s account %s\n", host, result.Username)
	return nil
}

// mergeScopes appends requested scopes to the defaults without duplicates.
func mergeScopes(defaults, extra []string) []string {
	seen := map[string]bool{}
	var merged []string
	for _, s := range append(append([]string{}, defaults...), extra...) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		merged = append(merged, s)
	}
	return merged
}

func init() {
	loginCmd.Flags().StringVar(&loginHostname, "hostname", "", "The hostname to authenticate with")
	loginCmd.Flags().StringSliceVarP(&loginScopes, "scopes", "s", nil, "Additional authentication scopes to request")
	loginCmd.Flags().BoolVar(&loginWithToken, "with-token", false, "Read token from standard input")
	loginCmd.Flags().BoolVarP(&loginWeb, "web", "w", false, "Authenticate with a web browser")
	loginCmd.Flags().BoolVar(&loginClipboard, "clipboard", false, "Copy the one-time code to the clipboard")
	loginCmd.Flags().StringVarP(&loginGitProtocol, "git-protocol", "p", "", "The protocol to use for git operations: https, ssh")
	loginCmd.Flags().BoolVar(&loginInsecureStorage, "insecure-storage", false, "Save credentials in plain text instead of the OS keychain")

	authCmd.AddCommand(loginCmd)
}
