package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/photobox/internal/price"
)

type priceState int

const (
	priceStateBrowse priceState = iota
	priceStateCreate
)

type PricesModel struct {
	CommonModel
	ledger *price.Ledger

	state  priceState
	table  table.Model
	prices []*price.Usage
	form   *huh.Form

	loading bool
	err     error
	status  string

	fields *priceFields
}

type priceFields struct {
	amount      string
	description string
	quota       string
}

func NewPricesModel(ledger *price.Ledger) PricesModel {
	return PricesModel{
		ledger: ledger,
		table: newTable([]table.Column{
			{Title: "Amount", Width: 14},
			{Title: "Description", Width: 30},
			{Title: "Quota", Width: 10},
			{Title: "Used", Width: 8},
			{Title: "Remaining", Width: 10},
			{Title: "Active", Width: 8},
		}),
		loading: true,
	}
}

func (m PricesModel) Title() string { return "Prices" }

func (m PricesModel) ShortHelp() string {
	if m.state == priceStateCreate {
		return "Navigate form | Esc: cancel"
	}

	return "Esc: back | n: new price | a: toggle active | r: refresh"
}

func (m PricesModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m PricesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadPricesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.err = nil
		m.prices = msg.prices
		m.refreshTable()

		return m, nil

	case priceSaveMsg:
		m.status = msg.status
		if msg.err != nil {
			m.status = fmt.Sprintf("Error saving: %v", msg.err)
		}

		m.state = priceStateBrowse
		m.form = nil
		m.table.Focus()

		return m, m.loadCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case priceStateBrowse:
		return m.updateBrowse(msg)
	case priceStateCreate:
		return m.updateCreate(msg)
	}

	return m, nil
}

func (m PricesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
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

func (m PricesModel) enterCreateMode() (tea.Model, tea.Cmd) {
	f := &priceFields{}
	m.fields = f

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("amount").
				Title("Amount (IDR)").
				Placeholder("35000").
				Value(&f.amount).
				Validate(func(s string) error {
					d, err := decimal.NewFromString(strings.TrimSpace(s))
					if err != nil || !d.IsPositive() {
						return fmt.Errorf("amount must be a positive number")
					}
					return nil
				}),

			huh.NewInput().
				Key("description").
				Title("Description (optional)").
				Value(&f.description),

			huh.NewInput().
				Key("quota").
				Title("Quota (empty for unlimited)").
				Value(&f.quota).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 0 {
						return fmt.Errorf("quota must be a non-negative integer")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = priceStateCreate
	m.table.Blur()

	return m, m.form.Init()
}

func (m PricesModel) updateCreate(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = priceStateBrowse
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

func (m PricesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading prices...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	content := boxed(m.table.View())

	if m.state == priceStateCreate && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render("New Price\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *PricesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.prices))
	for _, p := range m.prices {
		rows = append(rows, table.Row{
			FormatAmount(p.Amount),
			optional(p.Description),
			quotaLabel(p.Quota),
			strconv.Itoa(p.Used),
			quotaLabel(p.RemainingQuota),
			yesNo(p.IsActive),
		})
	}

	m.table.SetRows(rows)
}

func (m PricesModel) selected() *price.Usage {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.prices) {
		return nil
	}

	return m.prices[idx]
}

func optional(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}

func quotaLabel(n *int) string {
	if n == nil {
		return "∞"
	}

	return strconv.Itoa(*n)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}

// Messages

type loadPricesMsg struct {
	prices []*price.Usage
	err    error
}

func (m PricesModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		prices, err := m.ledger.List(ctx)

		return loadPricesMsg{prices: prices, err: err}
	}
}

type priceSaveMsg struct {
	status string
	err    error
}

func (m PricesModel) createCmd() tea.Cmd {
	params := price.CreateParams{
		Amount: decimal.RequireFromString(strings.TrimSpace(m.fields.amount)),
	}

	if desc := strings.TrimSpace(m.fields.description); desc != "" {
		params.Description = &desc
	}

	if q := strings.TrimSpace(m.fields.quota); q != "" {
		n, _ := strconv.Atoi(q)
		params.Quota = &n
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		p, err := m.ledger.Create(ctx, params)
		if err != nil {
			return priceSaveMsg{err: err}
		}

		return priceSaveMsg{status: fmt.Sprintf("Created price %s.", FormatAmount(p.Amount))}
	}
}

func (m PricesModel) toggleCmd() tea.Cmd {
	p := m.selected()
	if p == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		toggle := m.ledger.Deactivate
		if !p.IsActive {
			toggle = m.ledger.Activate
		}

		updated, err := toggle(ctx, p.ID)
		if err != nil {
			return priceSaveMsg{err: err}
		}

		return priceSaveMsg{status: fmt.Sprintf("Price %s active: %s.", FormatAmount(updated.Amount), yesNo(updated.IsActive))}
	}
}
