// Command quarry is the CLI companion of quarry projects: it scaffolds new
// projects and generates schema migrations from annotated model structs.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quarry-dev/quarry/internal/config"
	"github.com/quarry-dev/quarry/internal/debuglog"
	"github.com/quarry-dev/quarry/internal/ui"
)

var (
	verboseCount int
	quietCount   int
)

var rootCmd = &cobra.Command{
	Use:           "quarry",
	Short:         "Manage quarry projects and their schema migrations",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return err
		}
		ui.SetVerbosity(verboseCount - quietCount)
		debuglog.Init(config.GetBool("debug"), config.GetString("debug-log-file"))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verboseCount, "verbose", "v", "Increase diagnostic verbosity (repeatable)")
	rootCmd.PersistentFlags().CountVarP(&quietCount, "quiet", "q", "Decrease diagnostic verbosity (repeatable)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		ui.Error(err)
		os.Exit(1)
	}
}
