package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghx/cli/internal/config"
	"github.com/ghx/cli/internal/ghinstance"
)

var (
	statusHostname  string
	statusShowToken bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display the authentication state for each host",
	Long: `Show which accounts are logged in, which one is active per host, and
where each credential is stored. Tokens are masked unless --show-token is
given. No network requests are made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus()
	},
}

func runStatus() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	hosts := cfg.Hosts()
	if statusHostname != "" {
		hostname := ghinstance.NormalizeHostname(statusHostname)
		hosts = nil
		for _, h := range cfg.Hosts() {
			if h == hostname {
				hosts = []string{h}
			}
		}
		// An environment token makes a host reportable even when no
		// account is registered for it.
		if len(hosts) == 0 {
			if _, _, ok := config.EnvToken(hostname); ok {
				hosts = []string{hostname}
			}
		}
	}
	if len(hosts) == 0 {
		return fmt.Errorf("you are not logged in to any hosts; run: ghx auth login")
	}

	var failed bool
	for _, host := range hosts {
		fmt.Printf("%s\n", host)

		if token, varName, ok := config.EnvToken(host); ok {
			fmt.Printf("  ✓ Logged in to %s (%s)\n", host, varName)
			fmt.Printf("  - Active account: true\n")
			fmt.Printf("  - Token: %s\n", renderToken(token))
			fmt.Printf("  - The token in %s is being used for this host and cannot be modified by ghx\n", varName)
		}

		activeUser, _ := cfg.ActiveUser(host)
		for _, user := range cfg.UsersForHost(host) {
			token, source, err := cfg.TokenForUser(host, user)
			if errors.Is(err, config.ErrNoToken) {
				fmt.Printf("  ✗ No token stored for %s account %s\n", host, user)
				failed = true
				continue
			}
			if err != nil {
				fmt.Printf("  ✗ Failed to read token for %s account %s: %v\n", host, user, err)
				failed = true
				continue
			}
			fmt.Printf("  ✓ Logged in to %s account %s (%s)\n", host, user, source)
			fmt.Printf("  - Active account: %v\n", user == activeUser)
			fmt.Printf("  - Git operations protocol: %s\n", cfg.GitProtocol(host))
			fmt.Printf("  - Token: %s\n", renderToken(token))
		}
	}

	if failed {
		return fmt.Errorf("some credentials could not be read")
	}
	return nil
}

func renderToken(token string) string {
	if statusShowToken {
		return token
	}
	return displayToken(token)
}

func init() {
	statusCmd.Flags().StringVar(&statusHostname, "hostname", "", "Check only a specific hostname")
	statusCmd.Flags().BoolVarP(&statusShowToken, "show-token", "t", false, "Display the auth tokens")

	authCmd.AddCommand(statusCmd)
}
