package cli

import (
	"github.com/spf13/cobra"
)

func newInvokeCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "invoke <tool> [parameters-json]",
		Short: "Invoke a tool on the remote server and print its result",
		Example: `  mcpctl invoke --server http://172.16.16.54:8080 readDirectory '{"dirPath": "."}'
  mcpctl invoke runShellCommand '{"command": "dir"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			params := ParseParams(raw)

			client, err := flags.connect(cmd)
			if err != nil {
				return err
			}
			defer client.Disconnect()

			result, err := client.Invoke(cmd.Context(), args[0], params, 0)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}
