package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/hf-risk-server/internal/scoring"
)

func newModelCmd(global *globalOpts) *cobra.Command {
	var (
		modelFile string
		outputFmt string
	)

	cmd := &cobra.Command{
		Use:   "model",
		Short: "Print the active risk model",
		Long: `Prints the parameter table, risk bands and base recommendations the engine
scores with. The YAML output can be edited and passed back with --model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFmt != "json" && outputFmt != "yaml" {
				return validateOutput(outputFmt)
			}
			a, err := global.build(cmd.Context(), modelFile, false)
			if err != nil {
				return err
			}
			defer a.Close()

			model := a.Engine.Model()
			if outputFmt == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(model)
			}
			return scoring.EncodeConfig(cmd.OutOrStdout(), model)
		},
	}

	cmd.Flags().StringVar(&modelFile, "model", "", "YAML scoring model to load instead of the configured one")
	cmd.Flags().StringVar(&outputFmt, "output", "yaml", "Output format: yaml or json")

	return cmd
}
