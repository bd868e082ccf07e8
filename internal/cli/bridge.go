package cli

import (
	"github.com/spf13/cobra"

	"github.com/Yaswanth-ampolu/productdemo/src/bridge"
)

func newBridgeCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "bridge",
		Short: "Serve the remote server's tools as an MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := flags.connect(cmd)
			if err != nil {
				return err
			}
			defer client.Disconnect()

			b, err := bridge.New(cmd.Context(), client, "mcpctl-bridge", version, client.Config().InvokeTimeout, flags.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			return b.ServeStdio()
		},
	}
}
