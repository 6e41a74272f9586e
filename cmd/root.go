package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ghx/cli/internal/config"
	"github.com/ghx/cli/internal/ghinstance"
	"github.com/ghx/cli/internal/prompter"
)

var version = "1.0.0" // This will be set during build

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ghx",
	Short: "ghx - work with GitHub-compatible hosts from the command line",
	Long: `ghx is a command-line tool for GitHub-compatible hosts. It manages
authentication for multiple accounts across github.com, GitHub Enterprise
Server, and *.ghe.com tenants, and serves stored credentials to git.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration files, shared by every subcommand.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// isInteractive reports whether prompting is possible and allowed.
func isInteractive(cfg *config.Config) bool {
	if cfg.PromptDisabled() {
		return false
	}
	return prompter.IsTerminal(os.Stdin) && prompter.IsTerminal(os.Stdout)
}

func newPrompter() prompter.Prompter {
	return prompter.New(os.Stdin, os.Stderr)
}

// ensureWritable guards credential mutations: while an environment variable
// supplies the token for a host, stored credentials must not be touched.
func ensureWritable(host string) error {
	if _, varName, ok := config.EnvToken(host); ok {
		return fmt.Errorf("the value of the %s environment variable is being used for authentication; to have ghx store credentials instead, first clear the value from the environment", varName)
	}
	return nil
}

func normalizeHost(host string) string {
	if host == "" {
		return ghinstance.DefaultHost
	}
	return ghinstance.NormalizeHostname(host)
}

// displayToken masks a token for status output, keeping any type prefix.
func displayToken(token string) string {
	if idx := strings.Index(token, "_"); idx > -1 {
		prefix := token[0 : idx+1]
		return prefix + strings.Repeat("*", len(token)-len(prefix))
	}
	return strings.Repeat("*", len(token))
}

func init() {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of ghx",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ghx v%s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)
}
