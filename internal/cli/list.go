package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Yaswanth-ampolu/productdemo/src/tools"
)

func newListCmd(flags *GlobalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tools offered by the remote server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := flags.connect(cmd)
			if err != nil {
				return err
			}
			defer client.Disconnect()

			list, err := client.Tools(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{"tools": list})
			}
			printTools(cmd, list)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print descriptors as JSON")
	return cmd
}

func printTools(cmd *cobra.Command, list []tools.Descriptor) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Available tools:")
	for _, d := range list {
		desc := d.Description
		if desc == "" {
			desc = "No description"
		}
		fmt.Fprintf(out, "- %s: %s\n", d.Name, desc)
		for _, name := range d.ParameterNames() {
			p := d.Parameters[name]
			var attrs []string
			if p.Type != "" {
				attrs = append(attrs, p.Type)
			}
			if p.Required {
				attrs = append(attrs, "required")
			}
			fmt.Fprintf(out, "    %s (%s) %s\n", name, strings.Join(attrs, ", "), p.Description)
		}
	}
}
