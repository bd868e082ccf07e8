package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Yaswanth-ampolu/productdemo/src/localexec"
)

func newLocalCmd(flags *GlobalFlags) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "local <tool> [parameters-json]",
		Short: "Run one of the built-in file and shell tools on this machine",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			executor := localexec.NewExecutor(flags.logger(cmd.ErrOrStderr()))
			if list {
				fmt.Fprintln(cmd.OutOrStdout(), "Available local tools:")
				for _, name := range executor.Names() {
					fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", name)
				}
				return nil
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			var raw string
			if len(args) == 2 {
				raw = args[1]
			}
			return printJSON(cmd.OutOrStdout(), executor.Execute(cmd.Context(), args[0], ParseParams(raw)))
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the local tools")
	return cmd
}
