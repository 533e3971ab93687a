package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func normalizeCmd(e *env) *cobra.Command {
	var classify bool
	cmd := &cobra.Command{
		Use:   "normalize <phonemes>...",
		Short: "Print the normalized phonemes of an IPA or ARPAbet string",
		Example: `  vowelscore normalize "ˈhaʊ ˌnaʊ"
  vowelscore normalize --classify HH AW1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq := e.norm.Normalize(strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if !classify {
				fmt.Fprintln(out, seq.String())
				return nil
			}
			for _, tok := range seq {
				kind := "consonant"
				if tok.IsVowel {
					kind = "vowel " + string(tok.Class)
				}
				fmt.Fprintf(out, "%s\t%s\n", tok.Symbol, kind)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&classify, "classify", false, "print one symbol per line with its vowel class")
	return cmd
}
