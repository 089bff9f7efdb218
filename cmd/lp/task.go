package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/rank"
	"github.com/zulandar/launchpad/internal/store"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task candidate commands",
	}

	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskStatusCmd())
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var (
		configPath string
		filter     store.TaskFilter
		ranked     bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List task candidates",
		Long:  "Lists task candidates newest first, or by priority score with --ranked.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskList(cmd, configPath, filter, ranked, limit)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&filter.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&filter.Priority, "priority", "", "filter by priority (high, medium, low)")
	cmd.Flags().StringVar(&filter.SourceID, "source", "", "filter by feedback source")
	cmd.Flags().BoolVar(&ranked, "ranked", false, "order by priority score")
	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultPageSize, "maximum tasks to show")
	return cmd
}

func runTaskList(cmd *cobra.Command, configPath string, filter store.TaskFilter, ranked bool, limit int) error {
	ctx := context.Background()
	a, err := openApp(ctx, configPath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	var tasks []models.TaskCandidate
	if ranked {
		all, err := a.store.Tasks.Find(ctx, filter)
		if err != nil {
			return err
		}
		for _, sc := range rank.Ranked(all) {
			tasks = append(tasks, sc.TaskCandidate)
		}
	} else {
		page, err := a.store.Tasks.List(ctx, store.Page{Limit: min(max(limit, 1), store.MaxPageSize)}, filter)
		if err != nil {
			return err
		}
		tasks = page.Items
	}
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}

	if len(tasks) == 0 {
		fmt.Fprintln(out, "No task candidates found.")
		return nil
	}
	printTaskTable(out, tasks, ranked)
	return nil
}

// printTaskTable renders tasks with their derived scores. Input order is
// kept unless rankOrder is set.
func printTaskTable(out io.Writer, tasks []models.TaskCandidate, rankOrder bool) {
	scored := rank.Score(tasks)
	if rankOrder {
		rank.Sort(scored)
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tPRIORITY\tSTATUS\tCOST\tEFFECT\tSCORE\tTOTAL")
	for _, t := range scored {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			t.ID, truncate(t.Title, 40), t.Priority, t.Status,
			optInt(t.DevelopmentCost), optInt(t.EffectScore), t.PriorityScore, t.TotalScore)
	}
	w.Flush()
}

func newTaskStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Change a task candidate's status",
		Long:  "Statuses: pending, approved, in_progress, completed, rejected.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTaskStatus(cmd, configPath, args[0], args[1])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runTaskStatus(cmd *cobra.Command, configPath, id, status string) error {
	ctx := context.Background()
	a, err := openApp(ctx, configPath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.Tasks.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), "Task %s is now %s", id, statusStyle(status).Render(status))
	return nil
}
