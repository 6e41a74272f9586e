package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ghx/cli/internal/config"
)

var (
	switchHostname string
	switchUser     string
)

var switchCmd = &cobra.Command{
	Use:   "switch",
	Short: "Switch the active account for a host",
	Long: `Change which account is used by default for a host.

When a host has exactly two accounts and no --user is given, the inactive
one is selected automatically. Otherwise the command prompts, or requires
--hostname and --user when prompting is not possible.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSwitch()
	},
}

func runSwitch() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	candidates := matchingAccounts(cfg, switchHostname, switchUser)
	account, err := chooseSwitchTarget(cfg, candidates)
	if err != nil {
		return err
	}
	if err := ensureWritable(account.host); err != nil {
		return err
	}

	if err := cfg.SwitchUser(account.host, account.user); err != nil {
		return err
	}
	fmt.Printf("✓ Switched active account for %s to %s\n", account.host, account.user)
	return nil
}

// chooseSwitchTarget resolves which account to activate. A two-account host
// with no explicit user means "the other one".
func chooseSwitchTarget(cfg *config.Config, candidates []accountCandidate) (accountCandidate, error) {
	if len(candidates) == 2 && switchUser == "" && candidates[0].host == candidates[1].host {
		active, _ := cfg.ActiveUser(candidates[0].host)
		if candidates[0].user == active {
			return candidates[1], nil
		}
		return candidates[0], nil
	}
	return chooseAccount(cfg, "switch to", candidates)
}

func init() {
	switchCmd.Flags().StringVar(&switchHostname, "hostname", "", "The hostname to switch account for")
	switchCmd.Flags().StringVarP(&switchUser, "user", "u", "", "The account to switch to")

	authCmd.AddCommand(switchCmd)
}
