package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Print the primary cache key and its restore keys",
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

			res, err := c.app.Keys(cmd.Context(), path)
			if err != nil {
				return err
			}
			return p.Keys(res)
		},
	}
}
