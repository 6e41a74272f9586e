package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ghx/cli/internal/gitcredential"
)

// gitCredentialCmd is invoked by git, not by users; auth setup-git wires it
// into the git configuration.
var gitCredentialCmd = &cobra.Command{
	Use:    "git-credential <get|store|erase>",
	Short:  "Implement the git credential helper protocol",
	Hidden: true,
	Args:   cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return gitcredential.Handle(args[0], resolverFunc(cfg.ActiveToken), os.Stdin, os.Stdout)
	},
}

// resolverFunc adapts a function to the gitcredential.TokenResolver interface.
type resolverFunc func(host string) (string, string, error)

func (f resolverFunc) ActiveToken(host string) (string, string, error) {
	return f(host)
}

func init() {
	authCmd.AddCommand(gitCredentialCmd)
}
