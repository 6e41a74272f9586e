package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ghx/cli/internal/api"
	"github.com/ghx/cli/internal/authflow"
	"github.com/ghx/cli/internal/browser"
)

var (
	refreshHostname     string
	refreshUser         string
	refreshAddScopes    []string
	refreshRemoveScopes []string
	refreshResetScopes  bool
	refreshClipboard    bool
	refreshInsecure     bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh stored credentials, adding or removing scopes",
	Long: `Re-run the browser-based device flow for an account that is already
logged in, minting a replacement token.

The new token keeps the scopes the current one carries; --scopes adds to
them and --remove-scopes drops from them. The repo and read:org scopes are
required by ghx and cannot be removed. --reset-scopes discards the current
set and requests the defaults instead.

Examples:
  # Grant the workflow scope to the active github.com account
  ghx auth refresh --scopes workflow

  # Shrink a token back to the default scope set
  ghx auth refresh --reset-scopes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if refreshResetScopes && (len(refreshAddScopes) > 0 || len(refreshRemoveScopes) > 0) {
			return fmt.Errorf("--reset-scopes cannot be combined with --scopes or --remove-scopes")
		}
		return runRefresh()
	},
}

func runRefresh() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	candidates := matchingAccounts(cfg, refreshHostname, refreshUser)
	account, err := chooseAccount(cfg, "refresh credentials for", candidates)
	if err != nil {
		return err
	}
	if err := ensureWritable(account.host); err != nil {
		return err
	}

	token, source, err := cfg.TokenForUser(account.host, account.user)
	if err != nil {
		return err
	}
	secure := source == "keyring" && !refreshInsecure

	ctx := context.Background()
	scopes := authflow.DefaultScopes
	if !refreshResetScopes {
		current, err := api.NewClient(account.host).TokenScopes(ctx, token)
		if err != nil {
			return err
		}
		scopes, err = computeRefreshScopes(current, refreshAddScopes, refreshRemoveScopes)
		if err != nil {
			return err
		}
	}

	b := browser.New(cfg.Get("", "browser"))
	flow := authflow.New(b, os.Stderr, refreshClipboard)

	result, err := flow.Run(ctx, account.host, scopes)
	if err != nil {
		return fmt.Errorf("failed to refresh credentials: %w", err)
	}
	if result.Username != account.user {
		return fmt.Errorf("authenticated as %s, expected %s; the refreshed token was not stored", result.Username, account.user)
	}

	if err := cfg.Login(account.host, account.user, result.Token, "", secure); err != nil {
		return err
	}
	fmt.Printf("✓ Refreshed credentials for %s\n", account)
	return nil
}

// computeRefreshScopes derives the scope set to request: the current set
// plus additions minus removals, never dropping below the minimum scopes.
func computeRefreshScopes(current, add, remove []string) ([]string, error) {
	removed := map[string]bool{}
	for _, r := range remove {
		for _, m := range api.MinimumScopes {
			if r == m {
				return nil, fmt.Errorf("scope %q is required and cannot be removed", r)
			}
		}
		removed[r] = true
	}

	merged := mergeScopes(api.MinimumScopes, append(append([]string{}, current...), add...))
	var scopes []string
	for _, s := range merged {
		if !removed[s] {
			scopes = append(scopes, s)
		}
	}
	return scopes, nil
}

func init() {
	refreshCmd.Flags().StringVar(&refreshHostname, "hostname", "", "The hostname of the account to refresh")
	refreshCmd.Flags().StringVarP(&refreshUser, "user", "u", "", "The account to refresh")
	refreshCmd.Flags().StringSliceVarP(&refreshAddScopes, "scopes", "s", nil, "Additional scopes to request")
	refreshCmd.Flags().StringSliceVarP(&refreshRemoveScopes, "remove-scopes", "r", nil, "Scopes to drop from the new token")
	refreshCmd.Flags().BoolVar(&refreshResetScopes, "reset-scopes", false, "Request the default scope set, discarding the current one")
	refreshCmd.Flags().BoolVar(&refreshClipboard, "clipboard", false, "Copy the one-time code to the clipboard")
	refreshCmd.Flags().BoolVar(&refreshInsecure, "insecure-storage", false, "Save the new credential in plain text instead of the OS keychain")

	authCmd.AddCommand(refreshCmd)
}
