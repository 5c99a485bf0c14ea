package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/sigil/pkg/schema"
	"github.com/ssargent/sigil/pkg/store"
)

var shapesFromStore bool

// shapesCmd represents the shapes command
var shapesCmd = &cobra.Command{
	Use:   "shapes",
	Short: "List known shapes",
	Long: `List the shapes in the YAML catalog, or with --store the shapes
registered in the record store.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if shapesFromStore {
			s, err := store.Open(dataDir)
			if err != nil {
				return err
			}
			defer s.Close()

			names, err := s.ShapeNames()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return nil
		}

		cat, err := schema.LoadFile(shapesFile)
		if err != nil {
			return err
		}
		for _, name := range cat.Names() {
			shape := cat.Get(name)
			fmt.Printf("%s (%d fields, %d on wire)\n", name, shape.Len(), shape.WireCount())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shapesCmd)
	shapesCmd.Flags().BoolVar(&shapesFromStore, "store", false, "List shapes registered in the record store")
}
