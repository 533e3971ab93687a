package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func inventoryCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Print the vowel table of the active phoneme inventory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			classes := e.norm.Inventory().Classes()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(classes)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CLASS\tSYMBOL\tNAME\tEXAMPLE\tDIFFICULTY\tSYMBOLS")
			for _, c := range classes {
				fmt.Fprintf(tw, "%s\t/%s/\t%s\t%s\t%s\t%s\n",
					c.Class, c.Symbol, c.Name, c.Example, c.Difficulty, strings.Join(c.Symbols, " "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the table as JSON")
	return cmd
}
