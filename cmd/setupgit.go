package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/ghx/cli/internal/ghinstance"
)

var (
	setupGitHostname string
	setupGitForce    bool
)

// execGit runs one git invocation; replaced in tests.
var execGit = func(args ...string) error {
	cmd := exec.Command("git", args...)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run git %v: %w", args, err)
	}
	return nil
}

var setupGitCmd = &cobra.Command{
	Use:   "setup-git",
	Short: "Configure git to use ghx as a credential helper",
	Long: `Register ghx as the git credential helper for authenticated hosts, so
git push and fetch over HTTPS use the stored tokens.

By default every logged-in host is configured. With --hostname only that
host is configured; --force skips the login check and requires --hostname.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if setupGitForce && setupGitHostname == "" {
			return fmt.Errorf("--force must be used with --hostname")
		}
		return runSetupGit()
	},
}

func runSetupGit() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var hosts []string
	if setupGitHostname != "" {
		host := ghinstance.NormalizeHostname(setupGitHostname)
		if !setupGitForce {
			found := false
			for _, h := range cfg.Hosts() {
				if h == host {
					found = true
				}
			}
			if !found {
				return fmt.Errorf("not logged in to %s; run ghx auth login, or pass --force", host)
			}
		}
		hosts = []string{host}
	} else {
		hosts = cfg.Hosts()
		if len(hosts) == 0 {
			return fmt.Errorf("not logged in to any hosts; run: ghx auth login")
		}
	}

	for _, host := range hosts {
		if err := configureGitCredentialHelper(host); err != nil {
			return err
		}
		fmt.Printf("✓ Configured git credential helper for %s\n", host)
	}
	return nil
}

// configureGitCredentialHelper points git at ghx for one host. The empty
// helper entry clears any previously configured helpers for the host before
// ours is added.
func configureGitCredentialHelper(host string) error {
	key := fmt.Sprintf("credential.%shelper", ghinstance.HostPrefix(host))
	if err := execGit("config", "--global", "--replace-all", key, ""); err != nil {
		return err
	}
	return execGit("config", "--global", "--add", key, "!ghx auth git-credential")
}

func init() {
	setupGitCmd.Flags().StringVar(&setupGitHostname, "hostname", "", "The hostname to configure git for")
	setupGitCmd.Flags().BoolVarP(&setupGitForce, "force", "f", false, "Configure the hostname even if not logged in")

	authCmd.AddCommand(setupGitCmd)
}
