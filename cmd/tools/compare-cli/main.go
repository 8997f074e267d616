// cmd/tools/compare-cli/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dishprice-workers/internal/common/config"
	"dishprice-workers/internal/common/logger"
)

var (
	configPath string
	logLevel   string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:           "compare-cli",
	Short:         "Compare dish prices across Swiggy and Zomato",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a worker config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")

	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(registryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads --config when given, otherwise uses defaults only.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(configPath)
}

func newLogger() logger.Logger {
	return logger.NewZapAdapter(logger.NewWithOutput(logLevel, "console", "stderr", logger.FileOptions{}))
}
