package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/sigil/pkg/codec"
	"github.com/ssargent/sigil/pkg/store"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <shape> <id>",
	Short: "Load a stored record as JSON",
	Long: `Load a stored record by id and print it as JSON. The shape is
resolved from the store's catalog, where "sigil put" registered it.

Example:
  sigil get SimpleData 2Z4tP9rVqXyK7mAfB3cD1eF5gH6`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := ksuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("bad record id %q: %w", args[1], err)
		}

		s, err := store.Open(dataDir)
		if err != nil {
			return err
		}
		defer s.Close()

		shape, err := s.Shape(args[0])
		if err != nil {
			return err
		}

		rec := codec.NewRecord(shape)
		if err := s.Get(id, rec); err != nil {
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
	rootCmd.AddCommand(getCmd)
}
