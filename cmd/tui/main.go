package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/ledgersync/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/ledgersync/internal/app"
	"github.com/MrJamesThe3rd/ledgersync/internal/config"
)

type model struct {
	app     *app.App
	ownerID uuid.UUID

	currentView View
	status      string

	syncView view.SyncModel
	listView view.ListModel
}

type View int

const (
	ViewMenu View = 0
	ViewSync View = 1
	ViewList View = 2
)

func initialModel(a *app.App, ownerID uuid.UUID) model {
	return model{
		app:         a,
		ownerID:     ownerID,
		currentView: ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.currentView == ViewMenu {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewSync
				m.syncView = view.NewSyncModel(m.app.Sync, m.ownerID)

				return m, m.syncView.Init()
			case "2":
				m.currentView = ViewList
				m.listView = view.NewListModel(m.app.Transactions, m.app.Categories, m.ownerID)

				return m, m.listView.Init()
			case "3":
				m.status = "Reloading category mappings..."
				return m, m.reloadCmd()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	case reloadDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Reload failed, previous mappings kept: %v", msg.err)
		} else {
			m.status = fmt.Sprintf("Loaded %d descriptions and %d merchant codes", msg.descriptions, msg.codes)
		}

		return m, nil
	}

	switch m.currentView {
	case ViewSync:
		var newModel tea.Model
		newModel, cmd = m.syncView.Update(msg)
		m.syncView = newModel.(view.SyncModel)
	case ViewList:
		var newModel tea.Model
		newModel, cmd = m.listView.Update(msg)
		m.listView = newModel.(view.ListModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		menu := "Ledgersync\n\n" +
			"1. Sync Bank Accounts\n" +
			"2. Browse Transactions\n" +
			"3. Reload Category Mappings\n\n" +
			"q. Quit"

		if m.status != "" {
			menu += "\n\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
		}

		return lipgloss.NewStyle().Padding(2).Render(menu)
	case ViewSync:
		return m.syncView.View()
	case ViewList:
		return m.listView.View()
	}

	return "Unknown View"
}

type reloadDoneMsg struct {
	descriptions int
	codes        int
	err          error
}

// reloadCmd rereads the dictionary and MCC files, dropping cached owner indexes.
func (m model) reloadCmd() tea.Cmd {
	return func() tea.Msg {
		tables, err := m.app.Cache.Reload()
		if err != nil {
			return reloadDoneMsg{err: err}
		}

		descriptions, codes := tables.Len()

		return reloadDoneMsg{descriptions: descriptions, codes: codes}
	}
}

func promptOwner() (uuid.UUID, error) {
	var raw string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Owner ID").
				Placeholder("00000000-0000-0000-0000-000000000000").
				Value(&raw).
				Validate(func(s string) error {
					if _, err := uuid.Parse(strings.TrimSpace(s)); err != nil {
						return errors.New("not a valid id")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return uuid.Nil, err
	}

	return uuid.Parse(strings.TrimSpace(raw))
}

func main() {
	_ = godotenv.Load()

	owner := flag.String("owner", "", "owner id; prompted for when empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var ownerID uuid.UUID
	if *owner != "" {
		ownerID, err = uuid.Parse(*owner)
	} else {
		ownerID, err = promptOwner()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "owner id:", err)
		os.Exit(1)
	}

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	p := tea.NewProgram(initialModel(a, ownerID))
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
