package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/vowelscore/internal/assess"
)

func assessCmd(e *env) *cobra.Command {
	var (
		file    string
		compact bool
	)
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score one JSON request",
		Long: `Read one assessment request as JSON and print the result.

The request carries expected_phonemes (IPA or ARPAbet), actual_phonemes,
and optionally words (forced-alignment spans) and focus_vowels.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, closeIn, err := openInput(cmd, file)
			if err != nil {
				return err
			}
			defer closeIn()

			var req assess.Request
			dec := json.NewDecoder(in)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				return fmt.Errorf("decode request: %w", err)
			}

			res, err := e.assessor.Assess(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "request file, - for stdin")
	cmd.Flags().BoolVar(&compact, "compact", false, "print the result on a single line")
	return cmd
}

// openInput opens path, or the command's stdin for "-".
func openInput(cmd *cobra.Command, path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %q: %w", path, err)
	}
	return f, func() { _ = f.Close() }, nil
}
