package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the remote server's name, version and session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := flags.connect(cmd)
			if err != nil {
				return err
			}
			defer client.Disconnect()

			info, err := client.ServerInfo(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Server: %s %s\n", info.Name, info.Version)
			fmt.Fprintf(out, "Session: %s\n", client.SessionID())
			return nil
		},
	}
}
