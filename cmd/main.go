// cmd/main.go is the application entry point.
// Subcommands start the HTTP server and manage the database schema.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eventmanager",
	Short: "Event management backend",
	Long: `Event management backend: organizers publish events, attendees register
for them, and capacity limits hold under concurrent registration.

Configuration is read from environment variables (see internal/config).`,
	SilenceUsage: true,
	// Run the serve command by default if no subcommand is specified
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
