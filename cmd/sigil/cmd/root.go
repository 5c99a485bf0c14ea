/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/sigil/pkg/config"
	"github.com/ssargent/sigil/pkg/schema"
)

var (
	cfgFile    string
	dataDir    string
	shapesFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sigil",
	Short: "Sigil - Schema-driven CBOR record codec",
	Long: `Sigil encodes fixed-shape records to compact CBOR and back.

Shapes are declared once in a YAML catalog; records travel as
positional CBOR arrays with no field names on the wire.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		if !config.ConfigExists(path) {
			return nil
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !cmd.Flags().Changed("data-dir") && cfg.DataDir != "" {
			dataDir = cfg.DataDir
		}
		if !cmd.Flags().Changed("shapes") && cfg.ShapesFile != "" {
			shapesFile = cfg.ShapesFile
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.config/sigil/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "./data", "Data directory for the record store")
	rootCmd.PersistentFlags().StringVarP(&shapesFile, "shapes", "s", "./shapes.yaml", "YAML shape catalog")
}

// loadShape resolves a shape by name from the shape catalog file.
func loadShape(name string) (*schema.Shape, error) {
	cat, err := schema.LoadFile(shapesFile)
	if err != nil {
		return nil, err
	}
	shape := cat.Get(name)
	if shape == nil {
		return nil, fmt.Errorf("shape %q not found in %s", name, shapesFile)
	}
	return shape, nil
}

// readInput reads a file argument, or stdin when path is "-" or empty.
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
