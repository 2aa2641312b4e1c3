package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/ledgersync/internal/categorize"
)

func newCategoriesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect the category mapping tables",
	}

	var (
		dictionary string
		mcc        string
	)

	check := &cobra.Command{
		Use:   "check",
		Short: "Load the mapping tables and report their size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if dictionary == "" {
				dictionary = cfg.Categories.DictionaryPath
			}

			if mcc == "" {
				mcc = cfg.Categories.MCCPath
			}

			tables, err := categorize.LoadTables(dictionary, mcc)
			if err != nil {
				return err
			}

			descriptions, codes := tables.Len()
			fmt.Fprintf(cmd.OutOrStdout(), "%d descriptions, %d merchant codes\n", descriptions, codes)

			return nil
		},
	}

	check.Flags().StringVar(&dictionary, "dictionary", "", "description dictionary CSV (default: configured or embedded)")
	check.Flags().StringVar(&mcc, "mcc", "", "MCC YAML (default: configured or embedded)")

	cmd.AddCommand(check)

	return cmd
}
