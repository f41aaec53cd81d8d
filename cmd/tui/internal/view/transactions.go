package view

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

const pageSize = 50

type txState int

const (
	txStateTimeframe txState = iota
	txStateList
	txStateReconcile
)

var statusFilters = []*transaction.Status{
	nil,
	new(transaction.StatusPending),
	new(transaction.StatusCompleted),
	new(transaction.StatusExpired),
	new(transaction.StatusFailed),
}

// txItem wraps a transaction to implement list.Item.
type txItem struct {
	tx *transaction.Detail
}

func (i txItem) Title() string {
	status := lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("[%s]", i.tx.Status))

	return fmt.Sprintf("%s  %s  %s  %s", i.tx.CreatedAt.Format("2006-01-02 15:04"), FormatAmount(i.tx.Amount), status, i.tx.ExternalID)
}

func (i txItem) Description() string {
	desc := fmt.Sprintf("%s (%s)", i.tx.Location.Name, i.tx.Location.MachineCode)

	if i.tx.DeliverySentAt != nil {
		desc += "  delivered " + FormatTime(i.tx.DeliverySentAt)
	}

	if i.tx.FolderDeletedAt != nil {
		desc += "  photos deleted"
	}

	return desc
}

func (i txItem) FilterValue() string {
	return i.tx.ExternalID + " " + i.tx.Location.MachineCode + " " + i.tx.Location.Name
}

type TransactionsModel struct {
	CommonModel
	txService *transaction.Service

	state           txState
	timeframePicker TimeframePicker
	list            list.Model
	form            *huh.Form
	page            *transaction.Page
	selectedTx      *transaction.Detail

	startDate time.Time
	endDate   time.Time
	statusIdx int
	pageNum   int
	loading   bool
	status    string

	confirm *bool
}

func NewTransactionsModel(txSvc *transaction.Service, loc *time.Location) TransactionsModel {
	l := list.New([]list.Item{}, txItemDelegate{}, 0, 0)
	l.Title = "Transactions"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)

	return TransactionsModel{
		txService:       txSvc,
		timeframePicker: NewTimeframePicker(TimeframeToday, loc),
		list:            l,
		pageNum:         1,
	}
}

func (m TransactionsModel) Title() string { return "Transactions" }

func (m TransactionsModel) ShortHelp() string {
	switch m.state {
	case txStateTimeframe:
		return "Esc: back | Enter: select"
	case txStateList:
		return "Esc: back | Enter: reconcile | s: status | [ ]: page | /: filter"
	case txStateReconcile:
		return "Esc: cancel | Enter: confirm"
	}

	return ""
}

func (m TransactionsModel) Init() tea.Cmd {
	return nil
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimeframeSelectedMsg:
		m.startDate = msg.Start
		m.endDate = msg.End
		m.pageNum = 1
		m.loading = true
		m.state = txStateList

		return m, m.loadTxsCmd()

	case loadTxsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.page = msg.page
		m.refreshListItems()

		m.status = fmt.Sprintf("Page %d of %d, %d transaction(s)", msg.page.Meta.Page, max(msg.page.Meta.TotalPages, 1), msg.page.Meta.TotalItems)

		return m, nil

	case reconcileResultMsg:
		m.state = txStateList
		m.form = nil

		if msg.err != nil {
			m.status = fmt.Sprintf("Error reconciling: %v", msg.err)
			return m, nil
		}

		if msg.res.Applied {
			m.status = fmt.Sprintf("%s is now %s.", msg.res.ExternalID, msg.res.Status)
		} else {
			m.status = fmt.Sprintf("%s unchanged (%s).", msg.res.ExternalID, msg.res.Status)
		}

		return m, m.loadTxsCmd()

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil
	}

	switch m.state {
	case txStateTimeframe:
		return m.updateTimeframe(msg)
	case txStateList:
		return m.updateList(msg)
	case txStateReconcile:
		return m.updateReconcile(msg)
	}

	return m, nil
}

func (m TransactionsModel) updateTimeframe(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc && m.timeframePicker.IsSelecting() {
			return m, Back
		}
	}

	var cmd tea.Cmd
	m.timeframePicker, cmd = m.timeframePicker.Update(msg)

	return m, cmd
}

func (m TransactionsModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch keyMsg.String() {
		case "esc":
			m.state = txStateTimeframe
			m.timeframePicker.Reset()

			return m, nil
		case "enter":
			return m.startReconcile()
		case "s":
			m.statusIdx = (m.statusIdx + 1) % len(statusFilters)
			m.pageNum = 1

			return m, m.loadTxsCmd()
		case "]":
			if m.page != nil && m.pageNum < m.page.Meta.TotalPages {
				m.pageNum++
				return m, m.loadTxsCmd()
			}

			return m, nil
		case "[":
			if m.pageNum > 1 {
				m.pageNum--
				return m, m.loadTxsCmd()
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	return m, cmd
}

func (m TransactionsModel) startReconcile() (tea.Model, tea.Cmd) {
	selected, ok := m.list.SelectedItem().(txItem)
	if !ok {
		return m, nil
	}

	if selected.tx.Status.Terminal() {
		m.status = fmt.Sprintf("%s is already %s.", selected.tx.ExternalID, selected.tx.Status)
		return m, nil
	}

	m.selectedTx = selected.tx
	m.confirm = new(true)

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("reconcile").
				Title("Ask Xendit for the current payment status?").
				Affirmative("Yes").
				Negative("No").
				Value(m.confirm),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = txStateReconcile

	return m, m.form.Init()
}

func (m TransactionsModel) updateReconcile(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		m.state = txStateList
		m.form = nil

		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !*m.confirm {
		m.state = txStateList
		m.form = nil

		return m, nil
	}

	return m, m.reconcileCmd()
}

func (m TransactionsModel) View() string {
	switch m.state {
	case txStateTimeframe:
		return lipgloss.NewStyle().Padding(1).Render(m.timeframePicker.View())

	case txStateList:
		if m.loading {
			return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
		}

		header := fmt.Sprintf("%s to %s | [s] Status: %s",
			FormatDate(m.startDate), FormatDate(m.endDate), activeStyle(m.statusLabel()))

		statusLine := ""
		if m.status != "" {
			statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n"
		}

		return lipgloss.NewStyle().Padding(1).Render(header + "\n" + statusLine + m.list.View())

	case txStateReconcile:
		if m.form == nil {
			return ""
		}

		return lipgloss.NewStyle().Padding(1).Render(m.txInfoView() + "\n" + m.form.View())
	}

	return ""
}

func (m TransactionsModel) statusLabel() string {
	if st := statusFilters[m.statusIdx]; st != nil {
		return string(*st)
	}

	return "All"
}

func (m TransactionsModel) txInfoView() string {
	if m.selectedTx == nil {
		return ""
	}

	tx := m.selectedTx

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Render(fmt.Sprintf(
			"%s  |  %s  |  %s\nXendit: %s  |  Machine: %s\nCreated: %s",
			tx.ExternalID,
			tx.Status,
			FormatAmount(tx.Amount),
			tx.ProviderPaymentID,
			tx.Location.MachineCode,
			FormatTime(&tx.CreatedAt),
		))
}

func (m *TransactionsModel) refreshListItems() {
	items := make([]list.Item, len(m.page.Items))
	for i, tx := range m.page.Items {
		items[i] = txItem{tx: tx}
	}

	m.list.SetItems(items)
}

// Messages

type loadTxsMsg struct {
	page *transaction.Page
	err  error
}

func (m TransactionsModel) loadTxsCmd() tea.Cmd {
	filter := transaction.ListFilter{
		DateFrom: m.startDate,
		DateTo:   m.endDate,
		Page:     m.pageNum,
		Limit:    pageSize,
	}

	if st := statusFilters[m.statusIdx]; st != nil {
		filter.Statuses = []transaction.Status{*st}
	}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		page, err := m.txService.List(ctx, filter)

		return loadTxsMsg{page: page, err: err}
	}
}

type reconcileResultMsg struct {
	res *transaction.WebhookResult
	err error
}

func (m TransactionsModel) reconcileCmd() tea.Cmd {
	externalID := m.selectedTx.ExternalID
	txSvc := m.txService

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		res, err := txSvc.Reconcile(ctx, externalID)

		return reconcileResultMsg{res: res, err: err}
	}
}

// txItemDelegate renders items in the list.
type txItemDelegate struct{}

func (d txItemDelegate) Height() int                             { return 2 }
func (d txItemDelegate) Spacing() int                            { return 0 }
func (d txItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d txItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(txItem)
	if !ok {
		return
	}

	title := i.Title()
	if index == m.Index() {
		title = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> " + title)
	}

	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "    %s\n", lipgloss.NewStyle().Faint(true).Render(i.Description()))
}
