package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/stash/internal/app"
)

func (c *CLI) newSaveCmd() *cobra.Command {
	var opts app.SaveOptions

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the cache directory under the primary key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := printer(cmd)
			if err != nil {
				return err
			}
			path, err := configPath(cmd)
			if err != nil {
				return err
			}

			result, err := c.app.Save(cmd.Context(), path, opts)
			if err != nil {
				return err
			}
			return p.Save(result)
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "path", "p", "", "Directory to save (overrides the configured path)")
	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Save even if the restored entry is unchanged")
	return cmd
}
