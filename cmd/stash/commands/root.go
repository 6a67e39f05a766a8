// Package commands implements the CLI commands for stash.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/stash/internal/adapters/config"
	"go.trai.ch/stash/internal/app"
	"go.trai.ch/stash/internal/build"
	"go.trai.ch/stash/internal/ui/output"
)

// CLI represents the command line interface for stash.
type CLI struct {
	app     *app.App
	rootCmd *cobra.Command
}

// New creates a new CLI instance with the given app.
func New(a *app.App) *CLI {
	rootCmd := &cobra.Command{
		Use:           "stash",
		Short:         "Resolve, restore and save the regression-data cache of a CI run",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultFilename, "Path to configuration file")
	rootCmd.PersistentFlags().StringP("format", "o", string(output.FormatText), "Output format: text, json or azure")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newKeysCmd())
	rootCmd.AddCommand(c.newRestoreCmd())
	rootCmd.AddCommand(c.newSaveCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command results. Logs stay on stderr.
func (c *CLI) SetOutput(w io.Writer) {
	c.rootCmd.SetOut(w)
}

// printer builds the result printer from the persistent flags.
func printer(cmd *cobra.Command) (*output.Printer, error) {
	name, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(cmd.OutOrStdout(), format), nil
}

func configPath(cmd *cobra.Command) (string, error) {
	return cmd.Flags().GetString("config")
}
