package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"credit_analysis/pkg/core/pipeline"
	"credit_analysis/pkg/core/utils"
)

func assessCmd() *cobra.Command {
	var (
		strict bool
		output string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:   "assess <input.json|->",
		Short: "Run a credit assessment on one input document",
		Long: `Reads a flat document of period-suffixed accounts (cash_p4, grossRevenue_p3)
plus cadastral fields and debt records, runs the full calculation and prints
the result as JSON. Malformed JSON is repaired and HJSON is accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			doc, err := utils.DecodeDocument(data)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", args[0], err)
			}

			set, err := loadRules()
			if err != nil {
				return err
			}

			repo, closeRepo, err := openRepository(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			o := pipeline.NewOrchestrator(set, logger)
			o.SetRecorder(repo)
			cfg := pipeline.DefaultValidationConfig()
			cfg.EnableStrictValidation = strict || viper.GetBool("validation.strict")
			o.SetValidationConfig(cfg)
			o.SetInput(doc)

			res, err := o.Run(ctx)
			if err != nil {
				if reportValidation(cmd.ErrOrStderr(), err) {
					return fmt.Errorf("assessment rejected")
				}
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := writeJSON(w, res, pretty); err != nil {
				return err
			}

			logger.Info().
				Str("id", res.ID.String()).
				Float64("total", res.Score.Total).
				Str("rating", res.Score.Rating).
				Msg("assessment complete")
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat unbalanced balance sheets as errors")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
