package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stash/internal/app"
)

func (c *CLI) newRestoreCmd() *cobra.Command {
	var opts app.RestoreOptions

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the best matching cache entry",
		Long: "Restore looks up the primary key exactly, then each restore key by prefix,\n" +
			"and unpacks the first match into the cache directory. A miss is not an error.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := printer(cmd)
			if err != nil {
				return err
			}
			path, err := configPath(cmd)
			if err != nil {
				return err
			}

			result, err := c.app.Restore(cmd.Context(), path, opts)
			if err != nil {
				return err
			}
			return p.Restore(result)
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "path", "p", "", "Directory to restore into (overrides the configured path)")
	return cmd
}
