package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mibikit/cellprep/internal/pipeline"
	"github.com/mibikit/cellprep/internal/table"
)

var (
	insOutputPath   string
	insKeepMetadata []string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "List the markers, compartments and cell types in a QuPath export",
	Long: `Inspect classifies every column of an export without preprocessing it,
so you can pick filter arguments for a preprocess run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tbl, err := table.ReadFile(args[0])
		if err != nil {
			return err
		}
		inv, err := pipeline.Inspect(tbl, insKeepMetadata)
		if err != nil {
			return err
		}
		md := inv.Markdown()
		if insOutputPath != "" {
			if err := os.WriteFile(insOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote inventory to %s\n", insOutputPath)
			return nil
		}
		fmt.Println(md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&insOutputPath, "output", "o", "", "optional path to write the inventory (Markdown)")
	inspectCmd.Flags().StringSliceVarP(&insKeepMetadata, "additional-metadata-to-keep", "a", nil, "additional metadata columns to accept (comma-delimited)")
}
