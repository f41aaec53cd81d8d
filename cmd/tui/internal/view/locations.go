package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/photobox/internal/location"
)

type locationState int

const (
	locationStateBrowse locationState = iota
	locationStateCreate
)

type LocationsModel struct {
	CommonModel
	svc *location.Service

	state     locationState
	table     table.Model
	locations []*location.Location
	form      *huh.Form

	loading bool
	err     error
	status  string

	fields *locationFields
}

type locationFields struct {
	machineCode string
	name        string
	address     string
}

func NewLocationsModel(svc *location.Service) LocationsModel {
	return LocationsModel{
		svc: svc,
		table: newTable([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Machine", Width: 14},
			{Title: "Name", Width: 25},
			{Title: "Address", Width: 35},
			{Title: "Active", Width: 8},
		}),
		loading: true,
	}
}

func (m LocationsModel) Title() string { return "Locations" }

func (m LocationsModel) ShortHelp() string {
	if m.state == locationStateCreate {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new location | a: toggle active | r: refresh"
}

func (m LocationsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m LocationsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadLocationsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.locations = msg.locations
		m.refreshTable()

		return m, nil

	case locationSaveMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}

		m.state = locationStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	if m.state == locationStateCreate {
		return m.updateCreate(msg)
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "n":
			return m.enterCreateMode()
		case "a":
			return m, m.toggleCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m LocationsModel) enterCreateMode() (tea.Model, tea.Cmd) {
	f := &locationFields{}
	m.fields = f

	required := func(field string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s cannot be empty", field)
			}
			return nil
		}
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("machine_code").
				Title("Machine code").
				Placeholder("PB-001").
				Value(&f.machineCode).
				Validate(required("machine code")),

			huh.NewInput().
				Key("name").
				Title("Name").
				Value(&f.name).
				Validate(required("name")),

			huh.NewInput().
				Key("address").
				Title("Address (optional)").
				Value(&f.address),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = locationStateCreate
	m.table.Blur()

	return m, m.form.Init()
}

func (m LocationsModel) updateCreate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = locationStateBrowse
		m.form = nil
		m.table.Focus()

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.createCmd()
}

func (m LocationsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading locations...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	content := boxed(m.table.View())

	if m.state == locationStateCreate && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render("New Location\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *LocationsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.locations))
	for _, l := range m.locations {
		rows = append(rows, table.Row{
			strconv.FormatInt(l.ID, 10),
			l.MachineCode,
			l.Name,
			optional(l.Address),
			yesNo(l.IsActive),
		})
	}

	m.table.SetRows(rows)
}

// Messages

type loadLocationsMsg struct {
	locations []*location.Location
	err       error
}

func (m LocationsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		locations, err := m.svc.List(ctx, location.ListFilter{})

		return loadLocationsMsg{locations: locations, err: err}
	}
}

type locationSaveMsg struct {
	status string
	err    error
}

func (m LocationsModel) createCmd() tea.Cmd {
	params := location.CreateParams{
		MachineCode: strings.TrimSpace(m.fields.machineCode),
		Name:        strings.TrimSpace(m.fields.name),
	}

	if addr := strings.TrimSpace(m.fields.address); addr != "" {
		params.Address = &addr
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		l, err := m.svc.Create(ctx, params)
		if err != nil {
			return locationSaveMsg{err: err}
		}

		return locationSaveMsg{status: fmt.Sprintf("Created %s.", l.MachineCode)}
	}
}

func (m LocationsModel) toggleCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.locations) {
		return nil
	}

	l := m.locations[idx]

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		updated, err := m.svc.Update(ctx, l.ID, location.UpdateParams{IsActive: new(!l.IsActive)})
		if err != nil {
			return locationSaveMsg{err: err}
		}

		return locationSaveMsg{status: fmt.Sprintf("%s active: %s.", updated.MachineCode, yesNo(updated.IsActive))}
	}
}
