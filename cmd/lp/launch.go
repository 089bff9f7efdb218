package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zulandar/launchpad/internal/auth"
	"github.com/zulandar/launchpad/internal/models"
	"github.com/zulandar/launchpad/internal/pipeline"
	"github.com/zulandar/launchpad/internal/prompt"
)

func newLaunchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Service launch commands",
	}

	cmd.AddCommand(newLaunchContentCmd())
	cmd.AddCommand(newLaunchImageCmd())
	return cmd
}

func newLaunchContentCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "content <prd-id> <type>",
		Short: "Generate launch copy for a PRD",
		Long:  "Content types: " + strings.Join(prompt.ContentLabels, ", ") + ".",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunchContent(cmd, configPath, args[0], args[1])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runLaunchContent(cmd *cobra.Command, configPath, prdID, label string) error {
	ctx := context.Background()
	a, err := openApp(ctx, configPath, true)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	var res *pipeline.ContentResult
	err = runWithSpinner(ctx, out, "Writing "+label, func(ctx context.Context) error {
		var err error
		res, err = a.pipeline.GenerateLaunchContent(ctx, auth.System(), prdID, label)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, titleStyle.Render(res.Asset.Title))
	fmt.Fprintln(out, res.Text)
	fmt.Fprintln(out)
	printSuccess(out, "Saved to launch %s and content asset %s (%d chars)", res.Launch.ID, res.Asset.ID, res.Asset.WordCount())
	return nil
}

func newLaunchImageCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "image <prd-id> <slot> <file>",
		Short: "Attach an image to a PRD's launch",
		Long:  fmt.Sprintf("Stores an image in slot 1-%d of the PRD's launch, creating the launch if needed.", models.LaunchImageSlots),
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunchImage(cmd, configPath, args[0], args[1], args[2])
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runLaunchImage(cmd *cobra.Command, configPath, prdID, slotArg, path string) error {
	slot, err := strconv.Atoi(slotArg)
	if err != nil || slot < 1 || slot > models.LaunchImageSlots {
		return fmt.Errorf("slot must be 1-%d, got %q", models.LaunchImageSlots, slotArg)
	}

	ctx := context.Background()
	a, err := openApp(ctx, configPath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	launch, err := a.store.Launches.GetOrCreate(ctx, auth.System(), prdID)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	launch, err = a.pipeline.UploadLaunchImage(ctx, launch.ID, slot-1, filepath.Base(path), f)
	if err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), "Launch %s now has %d image(s)", launch.ID, len(launch.ImageURLs()))
	return nil
}
