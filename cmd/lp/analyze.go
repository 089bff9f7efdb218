package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/pipeline"
	"github.com/zulandar/launchpad/internal/store"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath string
		sourceID   string
	)

	cmd := &cobra.Command{
		Use:   "analyze [sheet-url]",
		Short: "Analyze a feedback spreadsheet and create task candidates",
		Long: `Fetches a shared spreadsheet, asks the AI to analyze the feedback and
records the recommended features as task candidates.

Pass a sheet URL to create a new feedback source, or --source to
re-analyze an existing one.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if sourceID == "" && len(args) != 1 {
				return fmt.Errorf("expected a sheet URL or --source")
			}
			if sourceID != "" && len(args) > 0 {
				return fmt.Errorf("pass either a sheet URL or --source, not both")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			return runAnalyze(cmd, configPath, url, sourceID)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&sourceID, "source", "", "re-analyze an existing feedback source")
	return cmd
}

func runAnalyze(cmd *cobra.Command, configPath, sheetURL, sourceID string) error {
	ctx := context.Background()
	a, err := openApp(ctx, configPath, true)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	var outcome *pipeline.AnalysisOutcome
	err = runWithSpinner(ctx, out, "Analyzing feedback", func(ctx context.Context) error {
		var err error
		if sourceID != "" {
			outcome, err = a.pipeline.ReanalyzeSource(ctx, auth.System(), sourceID)
		} else {
			outcome, err = a.pipeline.AnalyzeSheet(ctx, auth.System(), sheetURL)
		}
		return err
	})
	if outcome != nil {
		if perr := printAnalysis(ctx, out, a.store, outcome); perr != nil {
			return perr
		}
	}
	return err
}

func printAnalysis(ctx context.Context, out io.Writer, st *store.Store, o *pipeline.AnalysisOutcome) error {
	fmt.Fprintln(out, titleStyle.Render("Feedback analysis"))
	fmt.Fprintf(out, "  Source:    %s\n", o.SourceID)
	fmt.Fprintf(out, "  Analysis:  %s\n", o.AnalysisID)
	fmt.Fprintf(out, "  Feedback:  %d items\n", o.FeedbackCount)
	fmt.Fprintf(out, "  Tasks:     %d created\n", o.TasksCreated)
	if o.StructuredError != "" {
		printWarning(out, "No structured result: %s", o.StructuredError)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, o.AnalysisText)

	if o.TasksCreated == 0 {
		return nil
	}
	tasks, err := st.Tasks.Find(ctx, store.TaskFilter{SourceID: o.SourceID})
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	printTaskTable(out, tasks, true)
	return nil
}
