package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/mibikit/cellprep/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set cellprep configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("pixel_size: %g\n", cfg.PixelSize)
		fmt.Printf("change_to: %s\n", cfg.ChangeTo)
		fmt.Printf("class_prefixes: %s\n", strings.Join(cfg.ClassPrefixes, ", "))
		fmt.Printf("unwanted_statistics: %s\n", strings.Join(cfg.UnwantedStatistics, ", "))
		fmt.Printf("output_folder: %s\n", cfg.OutputFolder)
		fmt.Printf("output_format: %s\n", cfg.OutputFormat)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "pixel_size":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid positive float for pixel_size: %v", val)
			}
			cfg.PixelSize = f
		case "change_to":
			cfg.ChangeTo = val
		case "class_prefixes":
			cfg.ClassPrefixes = splitList(val)
		case "unwanted_statistics":
			cfg.UnwantedStatistics = splitList(val)
		case "output_folder":
			cfg.OutputFolder = val
		case "output_format":
			switch val {
			case "csv", "xlsx":
				cfg.OutputFormat = val
			default:
				return fmt.Errorf("invalid output_format: %s (use csv or xlsx)", val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// splitList parses a comma-delimited list, trimming whitespace around each
// entry and dropping empty ones.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
