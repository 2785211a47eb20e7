package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"credit_analysis/pkg/core/store"
)

func historyCmd() *cobra.Command {
	var (
		limit  int
		latest bool
		debts  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history <taxId>",
		Short: "List recorded assessments for a company",
		Long: `Lists the assessments recorded for a tax ID, oldest first. Only the file
and postgres backends persist across invocations.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			taxID := args[0]

			repo, closeRepo, err := openRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			if debts {
				return printDebts(cmd, repo, taxID, asJSON)
			}

			if latest {
				res, err := repo.Latest(ctx, taxID)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no assessments recorded for %s", taxID)
				}
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res, true)
			}

			entries, err := repo.History(ctx, taxID, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries, true)
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no assessments recorded for %s\n", taxID)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCALCULATED\tTOTAL\tRATING")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", e.ID, e.Timestamp.Format("2006-01-02 15:04:05"), e.Score.Total, e.Score.Rating)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&latest, "latest", false, "print the full latest result instead of the list")
	cmd.Flags().BoolVar(&debts, "debts", false, "print the debt schedule of the latest assessment")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")

	return cmd
}

func printDebts(cmd *cobra.Command, repo store.Repository, taxID string, asJSON bool) error {
	debts, err := repo.DebtSchedule(cmd.Context(), taxID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no assessments recorded for %s", taxID)
	}
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), debts, true)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCREDITOR\tKIND\tBALANCE\tINSTALLMENT\tOVERDUE")
	for _, d := range debts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.2f\t%t\n", d.Index, d.Creditor, d.Kind, d.Balance, d.Installment, d.Overdue)
	}
	return tw.Flush()
}
