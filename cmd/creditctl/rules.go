package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect the rule tables",
	}
	cmd.AddCommand(rulesValidateCmd())
	cmd.AddCommand(rulesShowCmd())
	return cmd
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the rule tables (built-in plus --rules overrides)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := loadRules()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "indicators: %d\n", len(set.Indicators))
			fmt.Fprintf(w, "thresholds: %d\n", len(set.Thresholds))
			fmt.Fprintf(w, "categories: %d (weight %.0f)\n", len(set.Scoring.Categories), set.Scoring.TotalWeight())
			fmt.Fprintf(w, "ratings:    %d\n", len(set.Scoring.Ratings))
			fmt.Fprintln(w, "rules OK")
			return nil
		},
	}
}

func rulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective rule set as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := loadRules()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), set, true)
		},
	}
}
