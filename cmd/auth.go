package cmd

import (
	"github.com/spf13/cobra"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth <command>",
	Short: "Authenticate ghx and git with GitHub-compatible hosts",
	Long: `Manage authentication state for GitHub-compatible hosts.

Examples:
  # Log in interactively
  ghx auth login

  # Log in to an enterprise server with a token from stdin
  ghx auth login --hostname ghe.example.com --with-token < mytoken.txt

  # Switch between accounts on a host
  ghx auth switch

  # Check auth status
  ghx auth status`,
}

func init() {
	rootCmd.AddCommand(authCmd)
}
