package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/sigil/pkg/codec"
	"github.com/ssargent/sigil/pkg/store"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put <shape> [json-file]",
	Short: "Encode a JSON record and store it",
	Long: `Encode a JSON record and store it in the record store under a fresh
id. The shape definition is registered alongside the record so "sigil
get" can decode it later without the shape file.

Example:
  echo '{"id":123,"name":"Test"}' | sigil put SimpleData`,
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

		s, err := store.Open(dataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.RegisterShape(shape); err != nil {
			return err
		}
		id, err := s.Put(rec)
		if err != nil {
			return err
		}

		fmt.Println(id.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}
