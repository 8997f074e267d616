// cmd/tools/compare-cli/compare.go
package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"dishprice-workers/internal/compare"
)

var (
	compareCity    string
	compareDish    string
	compareTimeout time.Duration
)

// compareCmd runs one comparison and prints the result as JSON
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run one price comparison and print the result as JSON",
	Long: `Search both sources for a dish near a city, price each restaurant's menu
and print either the per-restaurant comparison or the best-deals note.

Blank --city and --dish fall back to the configured defaults.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareCity, "city", "", "City name (e.g. mumbai)")
	compareCmd.Flags().StringVar(&compareDish, "dish", "", "Dish name (e.g. \"Butter Chicken\")")
	compareCmd.Flags().DurationVar(&compareTimeout, "timeout", 0, "Overall deadline (default: compare.request_timeout)")
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if compareTimeout > 0 {
		cfg.Compare.RequestTimeout = int(compareTimeout / time.Millisecond)
	}

	log := newLogger()
	service := compare.NewServiceFromConfig(cfg, nil, log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result := service.Compare(ctx, compare.Request{City: compareCity, Dish: compareDish})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
