// Package main is the flashdeck command line: deck listing, terminal
// study sessions, history and session maintenance.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "flashdeck",
		Short:         "Study flashcard decks until every card is known",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("config", "", "TOML config file (default $FLASHDECK_CONFIG)")
	root.PersistentFlags().BoolP("verbose", "v", false, "log service activity to stderr")

	root.AddCommand(
		decksCmd(),
		studyCmd(),
		historyCmd(),
		sessionsCmd(),
	)

	return root
}
