package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zulandar/launchpad/internal/airesp"
	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/pipeline"
)

func newPRDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prd",
		Short: "PRD draft commands",
	}

	cmd.AddCommand(newPRDGenerateCmd())
	cmd.AddCommand(newPRDShowCmd())
	cmd.AddCommand(newPRDChatCmd())
	cmd.AddCommand(newPRDStatusCmd())
	cmd.AddCommand(newPRDPublishCmd())
	return cmd
}

func newPRDGenerateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "generate <task-id>",
		Short: "Draft a PRD for a task candidate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPRDGenerate(cmd, configPath, args[0])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runPRDGenerate(cmd *cobra.Command, configPath, taskID string) error {
	ctx := context.Background()
	a, err := openApp(ctx, configPath, true)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	var res *pipeline.PRDResult
	err = runWithSpinner(ctx, out, "Writing PRD", func(ctx context.Context) error {
		var err error
		res, err = a.pipeline.GeneratePRD(ctx, auth.System(), taskID)
		return err
	})
	if err != nil {
		return err
	}
	if res.Confidence != airesp.ConfidenceStrict {
		printWarning(out, "Sections were recovered from loosely formatted output (%s); review before approving.", res.Confidence)
	}
	printPRD(out, res.PRD)
	return nil
}

// printPRD renders a PRD with one heading per section.
func printPRD(out io.Writer, prd *models.PRDDraft) {
	fmt.Fprintln(out, titleStyle.Render(prd.Title))
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%s  v%d  %s", prd.ID, prd.Version, prd.Status)))
	if prd.OutputURL != "" {
		fmt.Fprintf(out, "Published: %s\n", prd.OutputURL)
	}
	for _, name := range models.SectionNames {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headerStyle.Render(sectionHeading(name)))
		text := prd.Section(name)
		if text == "" {
			text = mutedStyle.Render("(empty)")
		}
		fmt.Fprintln(out, text)
	}
}

func sectionHeading(name string) string {
	switch name {
	case models.SectionUXRequirements:
		return "UX Requirements"
	case models.SectionEdgeCases:
		return "Edge Cases"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func newPRDShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <prd-id>",
		Short: "Show a PRD draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			prd, err := a.store.PRDs.Get(ctx, args[0])
			if err != nil {
				return err
			}
			printPRD(cmd.OutOrStdout(), prd)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newPRDChatCmd() *cobra.Command {
	var (
		configPath  string
		showHistory bool
	)

	cmd := &cobra.Command{
		Use:   "chat <prd-id> [message...]",
		Short: "Ask the AI to revise a PRD",
		Long: `Sends one message about a PRD. Sections the AI marks as updated are
saved to the draft. With --history, prints the conversation so far.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPRDChat(cmd, configPath, args[0], strings.Join(args[1:], " "), showHistory)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVar(&showHistory, "history", false, "print the conversation history")
	return cmd
}

func runPRDChat(cmd *cobra.Command, configPath, prdID, message string, showHistory bool) error {
	ctx := context.Background()
	a, err := openApp(ctx, configPath, !showHistory)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if showHistory {
		turns, err := a.pipeline.ChatHistory(ctx, prdID)
		if err != nil {
			return err
		}
		if len(turns) == 0 {
			fmt.Fprintln(out, "No conversation yet.")
		}
		for _, t := range turns {
			fmt.Fprintf(out, "%s %s\n\n", headerStyle.Render(t.Role+":"), t.Content)
		}
		return nil
	}

	var reply *pipeline.ChatReply
	err = runWithSpinner(ctx, out, "Thinking", func(ctx context.Context) error {
		var err error
		reply, err = a.pipeline.ChatPRD(ctx, auth.System(), prdID, message)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, reply.Reply)
	if len(reply.Updated) > 0 {
		fmt.Fprintln(out)
		printSuccess(out, "Updated sections: %s", strings.Join(reply.Updated, ", "))
	}
	return nil
}

func newPRDStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <prd-id> <status>",
		Short: "Change a PRD's status",
		Long:  "Statuses: draft, review, approved, published.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.PRDs.UpdateStatus(ctx, args[0], args[1]); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "PRD %s is now %s", args[0], statusStyle(args[1]).Render(args[1]))
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newPRDPublishCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "publish <prd-id>",
		Short: "Publish an approved PRD as a GitHub issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			prd, err := a.pipeline.PublishPRD(ctx, args[0])
			if err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Published %q: %s", prd.Title, prd.OutputURL)
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
