package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var (
	manpagesOutputDir string
	manpagesCreate    bool
)

var cliCmd = &cobra.Command{
	Use:   "cli",
	Short: "Manage the quarry CLI itself",
}

var manpagesCmd = &cobra.Command{
	Use:   "manpages",
	Short: "Generate manpages for the quarry CLI",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if manpagesCreate {
			if err := os.MkdirAll(manpagesOutputDir, 0o755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}
		}
		header := &doc.GenManHeader{Title: "QUARRY", Section: "1"}
		if err := doc.GenManTree(rootCmd, header, manpagesOutputDir); err != nil {
			return fmt.Errorf("generating manpages: %w", err)
		}
		return nil
	},
}

var completionsCmd = &cobra.Command{
	Use:       "completions <shell>",
	Short:     "Generate shell completions for the quarry CLI",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateCompletions(args[0], os.Stdout)
	},
}

func generateCompletions(shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return rootCmd.GenBashCompletionV2(w, true)
	case "zsh":
		return rootCmd.GenZshCompletion(w)
	case "fish":
		return rootCmd.GenFishCompletion(w, true)
	case "powershell":
		return rootCmd.GenPowerShellCompletionWithDesc(w)
	}
	return fmt.Errorf("unsupported shell %q", shell)
}

func init() {
	manpagesCmd.Flags().StringVarP(&manpagesOutputDir, "output-dir", "o", ".", "Directory to write the manpages to")
	manpagesCmd.Flags().BoolVarP(&manpagesCreate, "create", "c", false, "Create the output directory if it doesn't exist")

	cliCmd.AddCommand(manpagesCmd)
	cliCmd.AddCommand(completionsCmd)
	rootCmd.AddCommand(cliCmd)
}
