package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	tokenHostname string
	tokenUser     string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print the authentication token for a host",
	Long: `Print the token ghx would use for API and git operations against a
host. Environment variable overrides take precedence over stored
credentials; --user prints a specific account's stored token instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToken()
	},
}

func runToken() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	host := normalizeHost(tokenHostname)

	var token string
	if tokenUser != "" {
		token, _, err = cfg.TokenForUser(host, tokenUser)
	} else {
		token, _, err = cfg.ActiveToken(host)
	}
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func init() {
	tokenCmd.Flags().StringVar(&tokenHostname, "hostname", "", "The hostname to print the token for")
	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "The account to print the token for")

	authCmd.AddCommand(tokenCmd)
}
