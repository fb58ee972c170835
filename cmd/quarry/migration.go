package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quarry-dev/quarry/internal/config"
	"github.com/quarry-dev/quarry/internal/migrations"
	"github.com/quarry-dev/quarry/internal/ui"
	"github.com/quarry-dev/quarry/internal/watch"
)

var (
	migrationAppName   string
	migrationOutputDir string
	migrationWatch     bool
)

var migrationCmd = &cobra.Command{
	Use:   "migration",
	Short: "Manage migrations for a quarry project",
}

var migrationListCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List all migrations for a quarry project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := migrations.ListMigrations(projectPath(args))
		if err != nil {
			return err
		}
		for _, m := range list {
			fmt.Printf("%s\t%s\n", m.App, m.Migration)
		}
		return nil
	},
}

var migrationMakeCmd = &cobra.Command{
	Use:   "make [path]",
	Short: "Generate migrations for a quarry project",
	Long: `Compare the project's model declarations against the state recorded in its
existing migrations and write a new migration describing the difference.
Exits successfully whether or not a migration was needed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := projectPath(args)
		if err := runMake(root); err != nil {
			return err
		}
		if !migrationWatch {
			return nil
		}
		return runWatch(cmd.Context(), root)
	},
}

var migrationNewCmd = &cobra.Command{
	Use:   "new <name> [path]",
	Short: "Create a new empty migration",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := migrations.New(projectPath(args[1:]), makeOptions())
		if err != nil {
			return err
		}
		written, err := gen.NewEmpty(args[0])
		if err != nil {
			return err
		}
		ui.Status("Created", fmt.Sprintf("migration %s", written.Name))
		return nil
	},
}

func projectPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func makeOptions() migrations.Options {
	opts := migrations.Options{
		AppName:   migrationAppName,
		OutputDir: migrationOutputDir,
	}
	if opts.AppName == "" {
		opts.AppName = config.GetString("app-name")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.GetString("output-dir")
	}
	return opts
}

// runMake executes one generator pass. A fresh generator is built per pass
// so watch-mode reruns never share parser state.
func runMake(root string) error {
	gen, err := migrations.New(root, makeOptions())
	if err != nil {
		return err
	}
	written, err := gen.Make()
	if err != nil {
		return err
	}
	for _, w := range gen.Warnings {
		ui.Warning(w)
	}
	if written == nil {
		ui.Verbose("No changes detected; no migration written")
		return nil
	}
	ui.Status("Created", fmt.Sprintf("migration %s", written.Name))
	return nil
}

// runWatch keeps regenerating until interrupted. Generator failures are
// reported but do not stop the watch: the next save can fix them.
func runWatch(ctx context.Context, root string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	outputDir := makeOptions().OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(root, "migrations")
	}

	w, err := watch.New(root, outputDir, config.GetDuration("watch-debounce"), func() {
		if err := runMake(root); err != nil {
			ui.Error(err)
		}
	})
	if err != nil {
		return err
	}
	ui.Status("Watching", root)
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func init() {
	migrationMakeCmd.Flags().StringVar(&migrationAppName, "app-name", "", "App name used in the migration (default: module name)")
	migrationMakeCmd.Flags().StringVar(&migrationOutputDir, "output-dir", "", "Directory to write migrations to (default: migrations/)")
	migrationMakeCmd.Flags().BoolVar(&migrationWatch, "watch", false, "Keep running and regenerate on source changes")
	migrationNewCmd.Flags().StringVar(&migrationAppName, "app-name", "", "App name used in the migration (default: module name)")

	migrationCmd.AddCommand(migrationListCmd)
	migrationCmd.AddCommand(migrationMakeCmd)
	migrationCmd.AddCommand(migrationNewCmd)
	rootCmd.AddCommand(migrationCmd)
}
