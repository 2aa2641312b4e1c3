package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/ledgersync/internal/app"
	"github.com/MrJamesThe3rd/ledgersync/internal/banksync"
	"github.com/MrJamesThe3rd/ledgersync/internal/money"
)

func newSyncCommand() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync every linked account of an owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ownerID, err := uuid.Parse(owner)
			if err != nil {
				return fmt.Errorf("invalid --owner: %w", err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Sync.SyncAll(cmd.Context(), ownerID)
			if err != nil {
				return err
			}

			renderResult(cmd.OutOrStdout(), res)

			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner id (required)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func renderResult(w io.Writer, res *banksync.Result) {
	if len(res.Accounts) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Account", "Status", "Added", "Skipped", "Net", "Note").
			StyleFunc(func(row, _ int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}

				return cellStyle
			})

		for _, name := range slices.Sorted(maps.Keys(res.Accounts)) {
			a := res.Accounts[name]

			note := ""
			if a.Err != nil {
				note = a.Err.Error()
			} else if a.Truncated {
				note = "page full, older items may be missing"
			}

			t.Row(name, string(a.Status), strconv.Itoa(a.Added), strconv.Itoa(a.Skipped), money.FormatSigned(a.Net, a.Currency), note)
		}

		fmt.Fprintln(w, t.Render())
	}

	fmt.Fprintln(w, res.Message)
}
