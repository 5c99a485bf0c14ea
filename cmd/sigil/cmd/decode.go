package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/sigil/pkg/codec"
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode <shape> [cbor-file]",
	Short: "Decode CBOR to a JSON record",
	Long: `Decode Sigil CBOR back into a JSON record using the named shape.

Reads from stdin when no file is given. Absent optional fields are
omitted from the output.

Example:
  sigil decode SimpleData record.cbor`,
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
		if err := codec.Decode(data, rec); err != nil {
			return err
		}

		out, err := recordToJSON(rec)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}
