package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/ledgersync/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ledgersync",
		Short: "Bank statement sync for the personal ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(),
		newSyncCommand(),
		newTokenCommand(),
		newCategoriesCommand(),
	)

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	return config.Load()
}
