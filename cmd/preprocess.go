package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mibikit/cellprep/internal/pipeline"
	"github.com/mibikit/cellprep/internal/utils"
)

var (
	prepBatchName    string
	prepOutputDir    string
	prepInputPath    string
	prepKeepMetadata []string
	prepCellTypes    []string
	prepChangeTo     string
	prepMarkers      []string
	prepCompartments []string
	prepStatistics   []string
	prepPixelSize    float64
	prepFormat       string
	prepReportPath   string
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess <target>",
	Short: "Preprocess a QuPath export for classifier training or inference",
	Long: `Preprocess an annotated per-cell measurement table exported from QuPath.

The target selects the labeling scheme:
  cell-type                        encode the Class column for cell-type classification
  functional-marker                binarize the +/- Classification column
  functional-marker-with-celltype  as above, with one-hot encoded cell types as features`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := pipeline.ParseTarget(args[0])
		if err != nil {
			return err
		}

		opts := pipeline.Options{
			Target: target,
			Batch:  prepBatchName,
			Filter: pipeline.FilterSpec{
				UnwantedCellTypes:    prepCellTypes,
				ChangeTo:             prepChangeTo,
				UnwantedMarkers:      prepMarkers,
				UnwantedCompartments: prepCompartments,
				UnwantedStatistics:   prepStatistics,
				KeepMetadata:         prepKeepMetadata,
			},
			PixelSize: prepPixelSize,
		}

		outDir := prepOutputDir
		format := prepFormat
		if cfg != nil {
			if opts.PixelSize == 0 {
				opts.PixelSize = cfg.PixelSize
			}
			if opts.Filter.ChangeTo == "" {
				opts.Filter.ChangeTo = cfg.ChangeTo
			}
			if opts.ClassPrefixes == nil {
				opts.ClassPrefixes = cfg.ClassPrefixes
			}
			if !cmd.Flags().Changed("unwanted-statistics") {
				// Config defaults are best-effort; only explicit -s
				// entries are validated against the data.
				opts.Filter.UnwantedStatistics = nil
				opts.Filter.DefaultStatistics = cfg.UnwantedStatistics
			}
			if outDir == "" {
				outDir = cfg.OutputFolder
			}
			if format == "" {
				format = cfg.OutputFormat
			}
		}
		if outDir == "" {
			outDir = "output"
		}

		res, err := pipeline.RunFile(prepInputPath, opts)
		if err != nil {
			return err
		}
		manifest, err := res.Write(outDir, prepBatchName, format)
		if err != nil {
			return err
		}

		if prepReportPath != "" {
			if err := utils.SafeWriteFile(prepReportPath, []byte(res.Summary.Markdown())); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
		}

		fmt.Printf("✓ Preprocessed %d rows into %d features (run %s)\n",
			res.Summary.Rows, res.Features.NumCols(), res.RunID)
		fmt.Printf("✓ Wrote %s\n", manifest.Features)
		fmt.Printf("✓ Wrote %s\n", manifest.Labels)
		fmt.Printf("✓ Wrote %s\n", manifest.Images)
		if manifest.Decoder != "" {
			fmt.Printf("✓ Wrote %s\n", manifest.Decoder)
		}
		if manifest.BinarizedLabels != "" {
			fmt.Printf("✓ Wrote %s\n", manifest.BinarizedLabels)
		}
		fmt.Printf("✓ Wrote %s\n", manifest.Summary)
		if !res.Summary.TrainingMode {
			fmt.Fprintln(os.Stderr, "⚠ No annotations found: labels are placeholders and no decoder was written")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(preprocessCmd)
	preprocessCmd.Flags().StringVarP(&prepBatchName, "batch-name", "n", "", "batch name used to label output files")
	preprocessCmd.Flags().StringVarP(&prepInputPath, "data", "d", "", "raw data exported from QuPath (.csv, .tsv or .xlsx)")
	preprocessCmd.Flags().StringVarP(&prepOutputDir, "output-folder", "o", "", "where preprocessed files will be stored (created if absent)")
	preprocessCmd.Flags().StringSliceVarP(&prepKeepMetadata, "additional-metadata-to-keep", "a", nil, "additional metadata columns to keep (comma-delimited)")
	preprocessCmd.Flags().StringSliceVarP(&prepCellTypes, "unwanted-celltypes", "l", nil, "cell types to relabel, e.g. \"B cells,CD4 T cells\" (comma-delimited)")
	preprocessCmd.Flags().StringVarP(&prepChangeTo, "change-unwanted-celltypes-to", "t", "", "label assigned to cell types flagged for removal (default Other)")
	preprocessCmd.Flags().StringSliceVarP(&prepMarkers, "unwanted-markers", "m", nil, "markers to remove from the phenotyping (comma-delimited)")
	preprocessCmd.Flags().StringSliceVarP(&prepCompartments, "unwanted-compartments", "c", nil, "compartments to remove from the phenotyping (comma-delimited)")
	preprocessCmd.Flags().StringSliceVarP(&prepStatistics, "unwanted-statistics", "s", nil, "statistics to remove from the phenotyping (comma-delimited)")
	preprocessCmd.Flags().Float64Var(&prepPixelSize, "pixel-size", 0, "micrometres per pixel for unit conversion (overrides config)")
	preprocessCmd.Flags().StringVar(&prepFormat, "format", "", "feature table output format: csv or xlsx (overrides config)")
	preprocessCmd.Flags().StringVar(&prepReportPath, "report", "", "optional extra path to write the summary (Markdown)")
	_ = preprocessCmd.MarkFlagRequired("batch-name")
	_ = preprocessCmd.MarkFlagRequired("data")
}
