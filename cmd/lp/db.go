package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/zulandar/launchpad/internal/config"
	"github.com/zulandar/launchpad/internal/db"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Launchpad database",
		Long:  "Creates the MySQL database if needed and migrates all tables. SQLite files are created on first use.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBInit(cmd, configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runDBInit(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Loaded %s config from %s\n", cfg.Environment, configPath)

	if cfg.Database.Driver == "mysql" && cfg.Secrets.DatabaseDSN == "" {
		adminDB, err := db.ConnectAdmin(cfg)
		if err != nil {
			return err
		}
		if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s ready\n", cfg.Database.Name)
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := migrate(cmd, gormDB); err != nil {
		return err
	}

	fmt.Fprintln(out)
	printSuccess(out, "Launchpad database initialized.")
	return nil
}

func migrate(cmd *cobra.Command, gormDB *gorm.DB) error {
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Migrated %d tables\n", len(db.AllModels()))
	return nil
}

func newDBResetCmd() *cobra.Command {
	var (
		configPath string
		yes        bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and re-create every Launchpad table",
		Long: `Drops all Launchpad data and migrates a fresh schema.

MySQL databases are dropped and re-created. SQLite stores have their
tables dropped in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBReset(cmd, configPath, yes)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func runDBReset(cmd *cobra.Command, configPath string, skipConfirm bool) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	target := databaseLabel(cfg)

	if !skipConfirm && !confirmReset(cmd, target) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}

	switch {
	case cfg.Database.Driver == "mysql" && cfg.Secrets.DatabaseDSN == "":
		adminDB, err := db.ConnectAdmin(cfg)
		if err != nil {
			return err
		}
		if err := db.DropDatabase(adminDB, cfg.Database.Name); err != nil {
			return err
		}
		if err := db.CreateDatabase(adminDB, cfg.Database.Name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Database %s dropped and re-created\n", cfg.Database.Name)
	default:
		gormDB, err := db.Connect(cfg)
		if err != nil {
			return err
		}
		if err := db.DropTables(gormDB); err != nil {
			return err
		}
		fmt.Fprintf(out, "Dropped tables in %s\n", target)
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		return err
	}
	if err := migrate(cmd, gormDB); err != nil {
		return err
	}

	fmt.Fprintln(out)
	printSuccess(out, "Launchpad database reset.")
	return nil
}

func databaseLabel(cfg *config.Config) string {
	if cfg.Database.Driver == "sqlite" {
		return cfg.Database.Path
	}
	return cfg.Database.Name
}

// confirmReset asks for a literal "yes" on stdin.
func confirmReset(cmd *cobra.Command, target string) bool {
	out := cmd.OutOrStdout()
	in := cmd.InOrStdin()

	fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("WARNING: This will permanently delete all data in %q.", target)))
	fmt.Fprintln(out, "This action cannot be undone.")
	fmt.Fprintln(out)
	fmt.Fprint(out, "Type \"yes\" to confirm: ")

	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()) == "yes"
	}
	return false
}
