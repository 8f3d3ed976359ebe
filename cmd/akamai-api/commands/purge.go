package commands

import (
	"github.com/spf13/cobra"
)

func (a *App) installPurgeStatus() {
	cmd := &cobra.Command{
		Use:   "purge-status <purge-id|progress-uri>",
		Short: "Print the status of a CCU purge request",
		Long:  "Print the status of a CCU purge request, identified by its purge id or by the progress URI returned on submission.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}

			r, err := c.PurgeStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), a.config.Format, newPurgeStatusOutput(r))
		},
	}
	a.cmd.AddCommand(cmd)
}
