package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// PixelSize is the micrometres-per-pixel scale used when centroid or
	// shape measurements arrive in pixels.
	PixelSize float64 `mapstructure:"pixel_size" yaml:"pixel_size"`
	// ChangeTo is the replacement label assigned to unwanted cell types.
	ChangeTo string `mapstructure:"change_to" yaml:"change_to"`
	// ClassPrefixes are redundant annotation prefixes stripped from the
	// Class column.
	ClassPrefixes []string `mapstructure:"class_prefixes" yaml:"class_prefixes"`
	// UnwantedStatistics is the default statistics filter applied when the
	// user supplies none.
	UnwantedStatistics []string `mapstructure:"unwanted_statistics" yaml:"unwanted_statistics"`
	// OutputFolder is the default output directory.
	OutputFolder string `mapstructure:"output_folder" yaml:"output_folder"`
	// OutputFormat is csv or xlsx, applied to the feature table.
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
}

// defaultUnwantedStatistics mirrors the nucleus statistics that add no
// phenotyping signal in practice; they are removed unless the user
// overrides the list.
var defaultUnwantedStatistics = []string{
	"Nucleus: Mean", "Nucleus: Median", "Nucleus: Min", "Nucleus: Max",
	"Nucleus: Std.Dev.",
	"Nucleus: Percentile: 70.0", "Nucleus: Percentile: 80.0",
	"Nucleus: Percentile: 90.0", "Nucleus: Percentile: 91.0",
	"Nucleus: Percentile: 92.0", "Nucleus: Percentile: 93.0",
	"Nucleus: Percentile: 94.0", "Nucleus: Percentile: 95.0",
	"Nucleus: Percentile: 96.0", "Nucleus: Percentile: 97.0",
	"Nucleus: Percentile: 98.0", "Nucleus: Percentile: 99.0",
	"Nucleus: Percentile: 99.5", "Nucleus: Percentile: 99.9",
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.cellprep/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".cellprep")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CELLPREP")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("pixel_size", 0.3906)
	v.SetDefault("change_to", "Other")
	v.SetDefault("class_prefixes", []string{"Edited: ", "Immune cells: "})
	v.SetDefault("unwanted_statistics", defaultUnwantedStatistics)
	v.SetDefault("output_folder", "output")
	v.SetDefault("output_format", "csv")

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".cellprep")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
