// cmd/tools/compare-cli/registry.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"

	"dishprice-workers/pkg/registry"
)

var registryPath string

// registryCmd groups activity registry commands
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the activity registry",
}

// registryValidateCmd checks every activity entry and its schemas
var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the activity registry",
	Long: `Validate the embedded activity registry, or the file given by --path.

Every activity needs an id and task type, a parseable timeout, and input and
output schemas that compile.`,
	RunE: runRegistryValidate,
}

func init() {
	registryValidateCmd.Flags().StringVar(&registryPath, "path", "", "Registry file (default: embedded registry)")
	registryCmd.AddCommand(registryValidateCmd)
}

func runRegistryValidate(cmd *cobra.Command, args []string) error {
	var (
		reg *registry.ActivityRegistry
		err error
	)
	if registryPath == "" {
		reg, err = registry.Default()
	} else {
		reg, err = registry.LoadRegistry(registryPath)
	}
	if err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, a := range reg.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %q: id and taskType are required", a.ID)
		}
		if seen[a.TaskType] {
			return fmt.Errorf("activity %q: duplicate taskType %s", a.ID, a.TaskType)
		}
		seen[a.TaskType] = true

		if a.TimeoutDuration() <= 0 {
			return fmt.Errorf("activity %q: invalid timeout %q", a.ID, a.Timeout)
		}
		for name, schema := range map[string]map[string]interface{}{"input": a.InputSchema, "output": a.OutputSchema} {
			if len(schema) == 0 {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				return fmt.Errorf("activity %q: %s schema: %w", a.ID, name, err)
			}
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registry OK: %d activities (version %s)\n", len(reg.Activities), reg.Version)
	return nil
}
