package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghx/cli/internal/config"
	"github.com/ghx/cli/internal/ghinstance"
	"github.com/ghx/cli/internal/prompter"
)

var (
	logoutHostname string
	logoutUser     string
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out of a GitHub-compatible host",
	Long: `Remove an account's stored credential.

With multiple matching accounts the command prompts for which one to log
out; use --hostname and --user to pick one without prompting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogout()
	},
}

// accountCandidate is one (host, account) pair a command may act on.
type accountCandidate struct {
	host string
	user string
}

func (c accountCandidate) String() string {
	return fmt.Sprintf("%s account %s", c.host, c.user)
}

// matchingAccounts lists registered accounts, narrowed by optional hostname
// and username filters.
func matchingAccounts(cfg *config.Config, hostname, user string) []accountCandidate {
	if hostname != "" {
		hostname = ghinstance.NormalizeHostname(hostname)
	}
	var candidates []accountCandidate
	for _, host := range cfg.Hosts() {
		if hostname != "" && host != hostname {
			continue
		}
		for _, u := range cfg.UsersForHost(host) {
			if user != "" && u != user {
				continue
			}
			candidates = append(candidates, accountCandidate{host: host, user: u})
		}
	}
	return candidates
}

// chooseAccount narrows candidates to exactly one, prompting when allowed.
func chooseAccount(cfg *config.Config, action string, candidates []accountCandidate) (accountCandidate, error) {
	switch len(candidates) {
	case 0:
		return accountCandidate{}, fmt.Errorf("no accounts matched the criteria")
	case 1:
		return candidates[0], nil
	}

	if !isInteractive(cfg) {
		var names []string
		for _, c := range candidates {
			names = append(names, c.String())
		}
		return accountCandidate{}, fmt.Errorf("multiple accounts matched: %s; use --hostname and --user to select one", strings.Join(names, ", "))
	}

	options := make([]string, len(candidates))
	for i, c := range candidates {
		options[i] = c.String()
	}
	idx, err := newPrompter().Select(fmt.Sprintf("Which account do you want to %s?", action), options)
	if err != nil {
		return accountCandidate{}, err
	}
	return candidates[idx], nil
}

// confirmLogout double-checks before a credential is destroyed; declining
// leaves the account untouched.
func confirmLogout(p prompter.Prompter, account accountCandidate) (bool, error) {
	return p.Confirm(fmt.Sprintf("Are you sure you want to log out of %s?", account), true)
}

func runLogout() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	candidates := matchingAccounts(cfg, logoutHostname, logoutUser)
	account, err := chooseAccount(cfg, "log out of", candidates)
	if err != nil {
		return err
	}
	if err := ensureWritable(account.host); err != nil {
		return err
	}

	if isInteractive(cfg) {
		confirmed, err := confirmLogout(newPrompter(), account)
		if err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	active, _ := cfg.ActiveUser(account.host)
	wasActive := active == account.user

	if err := cfg.Logout(account.host, account.user); err != nil {
		return err
	}
	fmt.Printf("✓ Logged out of %s\n", account)

	if wasActive {
		if next, ok := cfg.ActiveUser(account.host); ok {
			fmt.Printf("✓ Switched active account for %s to %s\n", account.host, next)
		}
	}
	return nil
}

func init() {
	logoutCmd.Flags().StringVar(&logoutHostname, "hostname", "", "The hostname to log out of")
	logoutCmd.Flags().StringVarP(&logoutUser, "user", "u", "", "The account to log out of")

	authCmd.AddCommand(logoutCmd)
}
