package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuxchn/qloo/cmd/qloo/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qloo",
		Short: "Grocery list client for the qloo backend",
		Long:  `qloo manages a grocery list against the qloo backend: it signs users in, resolves free-text item names against the store catalog, and keeps a single current list per session.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewWhoamiCommand())
	rootCmd.AddCommand(commands.NewSearchCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewCheckCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
