package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const defaultConfigPath = "launchpad.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "lp",
		Short:        "Launchpad - from customer feedback to launch copy",
		Long:         "Launchpad turns customer feedback into ranked tasks, PRDs and launch content.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional.
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newPRDCmd())
	cmd.AddCommand(newLaunchCmd())
	cmd.AddCommand(newUserCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lp %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// addConfigFlag registers the shared --config flag.
func addConfigFlag(cmd *cobra.Command, configPath *string) {
	cmd.Flags().StringVarP(configPath, "config", "c", defaultConfigPath, "path to Launchpad config file")
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
