package cmd

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

// diagCmd represents the diag command
var diagCmd = &cobra.Command{
	Use:   "diag [cbor-file]",
	Short: "Show CBOR in diagnostic notation",
	Long: `Read CBOR and print RFC 8949 Extended Diagnostic Notation (EDN).

Unlike JSON output, diagnostic notation preserves CBOR type
information: integer vs float, byte strings vs text strings, and the
exact item structure. Useful for inspecting the wire representation of
an encoded record.

Example:
  sigil encode SimpleData record.json | sigil diag`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := ""
		if len(args) == 1 {
			input = args[0]
		}
		data, err := readInput(input)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if len(data) == 0 {
			return fmt.Errorf("empty input: expected CBOR data")
		}

		// Diagnose each item on its own line; a single record is one
		// line, a sequence of records is one line per record.
		remaining := data
		for len(remaining) > 0 {
			notation, rest, err := cbor.DiagnoseFirst(remaining)
			if err != nil {
				offset := len(data) - len(remaining)
				return fmt.Errorf("diagnose CBOR at byte %d: %w", offset, err)
			}
			fmt.Println(notation)
			remaining = rest
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diagCmd)
}
