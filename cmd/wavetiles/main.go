// wavetiles synthesizes tiled images with Wave Function Collapse.
//
// Usage:
//
//	wavetiles generate --tiles tiles --width 200 --height 200
//	wavetiles catalog
//	wavetiles serve
//	wavetiles history
//	wavetiles rerender <run-id>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/wavetiles/internal/config"
	"github.com/lawnchairsociety/wavetiles/internal/logger"
)

var (
	configPath string
	cfg        *config.Config

	rootCmd = &cobra.Command{
		Use:   "wavetiles",
		Short: "Wave Function Collapse tile synthesizer",
		Long: `wavetiles scans a directory of square tile images, derives adjacency
rules from the colours along their edges and fills a grid with tiles that
agree with their neighbours.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "wavetiles.yaml", "Path to config YAML file")
}

// loadConfig reads the config file and sets up logging from its logging section.
func loadConfig(cmd *cobra.Command, args []string) error {
	loaded, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	logConfig, err := logger.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load logging config: %w", err)
	}
	return logger.Initialize(logConfig)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
