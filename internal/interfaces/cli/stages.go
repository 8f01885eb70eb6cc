package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chemtools/qsarpipe/internal/application/pipeline"
)

func newEnumerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enumerate",
		Short: "Enumerate unique substitution isomers of the seed structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			n, err := pipeline.NewEnumerateService(cliCtx.Config, cliCtx.Logger).Run()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enumerated %d candidates\n", n)
			return nil
		},
	}
}

func newPrepareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prepare",
		Short: "Render depictions, embed 3D geometries, and resolve registry IDs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			sum, err := pipeline.NewPrepareService(cliCtx.Config, cliCtx.Logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"prepared %d candidates (rendered=%d embedded=%d converted=%d resolved=%d)\n",
				sum.Candidates, sum.Rendered, sum.Embedded, sum.Converted, sum.Resolved)
			return nil
		},
	}
}

func newDescriptorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "descriptors",
		Short: "Compute the per-candidate descriptor matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			n, err := pipeline.NewDescriptorsService(cliCtx.Config, cliCtx.Logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "computed descriptors for %d candidates\n", n)
			return nil
		},
	}
}

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Grid-search and persist one regression model per family",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			results, err := pipeline.NewTrainService(cliCtx.Config, cliCtx.Logger).Run()
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: test RMSE %.4f, R2 %.4f -> %s\n",
					r.Family, r.Test.RMSE, r.Test.R2, r.Path)
			}
			return nil
		},
	}
}

func newPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Score the candidate matrix with every persisted model",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			families, err := pipeline.NewPredictService(cliCtx.Config, cliCtx.Logger).Run()
			if err != nil {
				return err
			}
			for _, family := range families {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote predictions for %s\n", family)
			}
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute every pipeline stage end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			manifest, err := pipeline.NewRunner(cliCtx.Config, cliCtx.Logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "run %s finished, %d stages\n",
				manifest.RunID, len(manifest.Stages))
			return nil
		},
	}
}
