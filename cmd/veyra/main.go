package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/veyra-hq/veyra/internal/interfaces/cli/migrate"
	"github.com/veyra-hq/veyra/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "veyra",
		Short: "Veyra - access resolution for the business suite",
		Long:  `Veyra resolves tenant, entitlement, and permission checks for the business suite, with built-in server and migration tools.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
