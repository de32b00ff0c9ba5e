package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"phpmdls/internal/phpmd"
)

// addToolFlags registers the flags that override the phpmd configuration.
func addToolFlags(cmd *cobra.Command) {
	cmd.Flags().String("executable", "", "path to the phpmd executable (default phpmd on PATH)")
	cmd.Flags().String("rulesets", "", "comma-separated rulesets (default all)")
}

// toolOverrides returns overrides for the tool flags the user set.
func toolOverrides(cmd *cobra.Command) (phpmd.Overrides, error) {
	var o phpmd.Overrides
	if cmd.Flags().Changed("executable") {
		exe, err := cmd.Flags().GetString("executable")
		if err != nil {
			return o, fmt.Errorf("failed to get executable flag: %w", err)
		}
		o.ExecutablePath = &exe
	}
	if cmd.Flags().Changed("rulesets") {
		rulesets, err := cmd.Flags().GetString("rulesets")
		if err != nil {
			return o, fmt.Errorf("failed to get rulesets flag: %w", err)
		}
		o.Rulesets = &rulesets
	}
	return o, nil
}
