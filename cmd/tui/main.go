package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/photobox/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/photobox/internal/app"
)

type model struct {
	app *app.App

	currentView View

	transactionsView view.TransactionsModel
	pricesView       view.PricesModel
	locationsView    view.LocationsModel
	maintenanceView  view.MaintenanceModel
}

type View int

const (
	ViewMenu         View = 0
	ViewTransactions View = 1
	ViewPrices       View = 2
	ViewLocations    View = 3
	ViewMaintenance  View = 4
)

func initialModel(a *app.App) model {
	return model{
		app:         a,
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
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewTransactions
				m.transactionsView = view.NewTransactionsModel(m.app.Transactions, m.app.Location)

				return m, m.transactionsView.Init()
			case "2":
				m.currentView = ViewPrices
				m.pricesView = view.NewPricesModel(m.app.Prices)

				return m, m.pricesView.Init()
			case "3":
				m.currentView = ViewLocations
				m.locationsView = view.NewLocationsModel(m.app.Locations)

				return m, m.locationsView.Init()
			case "4":
				m.currentView = ViewMaintenance
				m.maintenanceView = view.NewMaintenanceModel(m.app.Transactions, m.app.Retention)

				return m, m.maintenanceView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewTransactions:
		var newModel tea.Model
		newModel, cmd = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)
	case ViewPrices:
		var newModel tea.Model
		newModel, cmd = m.pricesView.Update(msg)
		m.pricesView = newModel.(view.PricesModel)
	case ViewLocations:
		var newModel tea.Model
		newModel, cmd = m.locationsView.Update(msg)
		m.locationsView = newModel.(view.LocationsModel)
	case ViewMaintenance:
		var newModel tea.Model
		newModel, cmd = m.maintenanceView.Update(msg)
		m.maintenanceView = newModel.(view.MaintenanceModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Photobox Console\n\n" +
				"1. Transactions\n" +
				"2. Prices\n" +
				"3. Locations\n" +
				"4. Maintenance\n\n" +
				"q. Quit",
		)
	case ViewTransactions:
		return m.transactionsView.View()
	case ViewPrices:
		return m.pricesView.View()
	case ViewLocations:
		return m.locationsView.View()
	case ViewMaintenance:
		return m.maintenanceView.View()
	}

	return "Unknown View"
}

func main() {
	ctx := context.Background()

	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Log lines would tear through the rendered screen.
	cfg.Log.Level = "error"

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close(ctx)

	p := tea.NewProgram(initialModel(a), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		a.Close(ctx)
		os.Exit(1)
	}
}
