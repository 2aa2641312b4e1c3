package view

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ledgersync/internal/banksync"
	"github.com/MrJamesThe3rd/ledgersync/internal/money"
)

// Syncer runs one sync batch for an owner.
type Syncer interface {
	SyncAll(ctx context.Context, ownerID uuid.UUID) (*banksync.Result, error)
}

type SyncModel struct {
	syncer  Syncer
	ownerID uuid.UUID

	spinner spinner.Model
	running bool
	result  *banksync.Result
	err     error
}

func NewSyncModel(syncer Syncer, ownerID uuid.UUID) SyncModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return SyncModel{
		syncer:  syncer,
		ownerID: ownerID,
		spinner: s,
		running: true,
	}
}

func (m SyncModel) Title() string     { return "Sync Accounts" }
func (m SyncModel) ShortHelp() string { return "Esc: back | r: sync again" }

func (m SyncModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.syncCmd())
}

func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case syncDoneMsg:
		m.running = false
		m.result = msg.result
		m.err = msg.err

		return m, nil

	case spinner.TickMsg:
		if !m.running {
			return m, nil
		}

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case tea.KeyMsg:
		if m.running {
			return m, nil
		}

		switch msg.String() {
		case "esc", "q":
			return m, Back
		case "r":
			m.running = true
			m.result = nil
			m.err = nil

			return m, tea.Batch(m.spinner.Tick, m.syncCmd())
		}
	}

	return m, nil
}

func (m SyncModel) View() string {
	if m.running {
		return lipgloss.NewStyle().Padding(2).Render(m.spinner.View() + " Syncing linked accounts...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(
			errorStyle.Render(fmt.Sprintf("Sync failed: %v", m.err)) + "\n\n" + helpStyle.Render(m.ShortHelp()),
		)
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			ResultTable(m.result),
			"",
			m.result.Message,
			"",
			helpStyle.Render(m.ShortHelp()),
		),
	)
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle  = lipgloss.NewStyle().Faint(true)

	statusStyles = map[banksync.Status]lipgloss.Style{
		banksync.StatusUpdated:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		banksync.StatusRateLimited: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		banksync.StatusFailed:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// ResultTable renders one row per account, sorted by name.
func ResultTable(res *banksync.Result) string {
	if res == nil || len(res.Accounts) == 0 {
		return "No linked accounts."
	}

	names := slices.Sorted(maps.Keys(res.Accounts))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("Account", "Status", "Added", "Skipped", "Net").
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Bold(true)
			}

			if col == 1 && row >= 0 && row < len(names) {
				if s, ok := statusStyles[res.Accounts[names[row]].Status]; ok {
					return s.Padding(0, 1)
				}
			}

			return base
		})

	for _, name := range names {
		a := res.Accounts[name]
		t.Row(name, string(a.Status), strconv.Itoa(a.Added), strconv.Itoa(a.Skipped), money.FormatSigned(a.Net, a.Currency))
	}

	return t.Render()
}

type syncDoneMsg struct {
	result *banksync.Result
	err    error
}

func (m SyncModel) syncCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.syncer.SyncAll(context.Background(), m.ownerID)
		return syncDoneMsg{result: res, err: err}
	}
}
