package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hf-risk-server/internal/report"
)

func newHistoryCmd(global *globalOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and move stored assessments",
	}
	cmd.AddCommand(
		newHistoryListCmd(global),
		newHistoryShowCmd(global),
		newHistoryExportCmd(global),
		newHistoryImportCmd(global),
	)
	return cmd
}

func newHistoryListCmd(global *globalOpts) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored assessments, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := global.build(cmd.Context(), "", true)
			if err != nil {
				return err
			}
			defer a.Close()

			records, total, err := a.Service.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tPATIENT\tSCORE\tCATEGORY")
			for _, rec := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%s\n",
					rec.ID, rec.CreatedAt.Format(time.RFC3339), rec.PatientRef, rec.Result.Total, rec.Result.Category)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d assessments\n", len(records), total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of assessments to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of assessments to skip")
	return cmd
}

func newHistoryShowCmd(global *globalOpts) *cobra.Command {
	var outputFmt string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print the summary of one stored assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(outputFmt); err != nil {
				return err
			}
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid assessment id %q: %w", args[0], err)
			}

			a, err := global.build(cmd.Context(), "", true)
			if err != nil {
				return err
			}
			defer a.Close()

			rec, err := a.Service.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if outputFmt == "json" {
				return report.WriteJSON(cmd.OutOrStdout(), report.FromRecord(rec))
			}
			return report.WriteText(cmd.OutOrStdout(), report.FromRecord(rec))
		},
	}

	cmd.Flags().StringVar(&outputFmt, "output", "text", "Output format: text or json")
	return cmd
}

func newHistoryExportCmd(global *globalOpts) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored assessment as a JSON export document",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := global.build(cmd.Context(), "", true)
			if err != nil {
				return err
			}
			defer a.Close()

			var w io.Writer = cmd.OutOrStdout()
			if file != "" {
				f, err := os.Create(file)
				if err != nil {
					return fmt.Errorf("creating export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return a.Service.Export(cmd.Context(), w)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to this file instead of stdout")
	return cmd
}

func newHistoryImportCmd(global *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load a JSON export document, skipping assessments already stored",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening import file: %w", err)
			}
			defer f.Close()

			a, err := global.build(cmd.Context(), "", true)
			if err != nil {
				return err
			}
			defer a.Close()

			imported, skipped, err := a.Service.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", imported, skipped)
			return nil
		},
	}
}
