package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/sigil/pkg/codec"
)

var encodeOut string

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode <shape> [json-file]",
	Short: "Encode a JSON record to CBOR",
	Long: `Encode a JSON record to Sigil's positional CBOR wire format.

The record is a JSON object keyed by field name; the shape fixes the
wire layout. Reads from stdin when no file is given.

Example:
  echo '{"id":123,"name":"Test","flags":[1,2,3,4]}' | sigil encode SimpleData`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		shape, err := loadShape(args[0])
		if err != nil {
			return err
		}

		input := ""
		if len(args) == 2 {
			input = args[1]
		}
		data, err := readInput(input)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		rec := codec.NewRecord(shape)
		if err := recordFromJSON(rec, data); err != nil {
			return err
		}

		encoded, err := encodeRecord(rec)
		if err != nil {
			return err
		}

		if encodeOut == "" || encodeOut == "-" {
			_, err = os.Stdout.Write(encoded)
			return err
		}
		return os.WriteFile(encodeOut, encoded, 0644)
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringVarP(&encodeOut, "out", "o", "", "Output file (default stdout)")
}
