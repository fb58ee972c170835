package main

import (
	"github.com/spf13/cobra"

	"github.com/quarry-dev/quarry/internal/scaffold"
)

var (
	newProjectName string
	newUseGit      bool
	newQuarryPath  string
)

var newCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Create a new quarry project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := scaffold.Source{
			Git:     newUseGit,
			Path:    newQuarryPath,
			Version: Version,
		}
		return scaffold.NewProject(args[0], newProjectName, src)
	},
}

func init() {
	newCmd.Flags().StringVar(&newProjectName, "name", "", "Project name (default: the directory name)")
	newCmd.Flags().BoolVar(&newUseGit, "use-git", false, "Use the development version of quarry from git")
	newCmd.Flags().StringVar(&newQuarryPath, "path", "", "Use quarry from the given local checkout")
	newCmd.MarkFlagsMutuallyExclusive("use-git", "path")
	rootCmd.AddCommand(newCmd)
}
