package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/heya-pos/heya/internal/interfaces/cli/migrate"
	"github.com/heya-pos/heya/internal/interfaces/cli/pin"
	"github.com/heya-pos/heya/internal/interfaces/cli/server"
	"github.com/heya-pos/heya/internal/interfaces/cli/staff"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "heya",
		Short:   "Heya - POS staff authentication service",
		Long:    `Heya runs the staff PIN authentication service for the Heya POS, with migration and staff administration tools.`,
		Version: version,
	}

	rootCmd.AddCommand(
		server.NewCommand(version),
		migrate.NewCommand(),
		staff.NewCommand(),
		pin.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
