package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/akamai-api/akamai-api/pkg/akamai"
	"github.com/spf13/cobra"
)

func (a *App) installConfigure() {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Store credentials in the credentials file",
		Long: "Store the username and password given with flags or environment as a profile of the credentials file. " +
			"Other profiles of the file are kept.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.config.Username == "" {
				return errors.New("a username is required")
			}

			creds := akamai.Credentials{Username: a.config.Username, Password: a.config.Password}
			if err := akamai.SaveCredentials(a.config.Credentials, a.config.Profile, creds); err != nil {
				return err
			}
			slog.Info("Stored credentials", "file", a.config.Credentials, "profile", a.config.Profile)

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Credentials of %s stored in profile %q of %s\n", creds.Username, a.config.Profile, a.config.Credentials)
			return err
		},
	}
	a.cmd.AddCommand(cmd)
}
