package view

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/photobox/internal/retention"
	"github.com/MrJamesThe3rd/photobox/internal/transaction"
)

// Sweeps talk to Cloudinary for every folder, so they get longer than a
// database call.
const sweepTimeout = 2 * time.Minute

const (
	actionExpire = "expire"
	actionSweep  = "sweep"
)

type maintenanceState int

const (
	maintenanceStateForm maintenanceState = iota
	maintenanceStateRunning
	maintenanceStateDone
)

type MaintenanceModel struct {
	CommonModel
	txService *transaction.Service
	scheduler *retention.Scheduler

	state  maintenanceState
	form   *huh.Form
	result string
	err    error

	fields *maintenanceFields
}

// maintenanceFields outlives model copies so the form can write into it.
type maintenanceFields struct {
	action  string
	days    string
	confirm bool
}

func NewMaintenanceModel(txSvc *transaction.Service, scheduler *retention.Scheduler) MaintenanceModel {
	m := MaintenanceModel{txService: txSvc, scheduler: scheduler}
	m.form = m.newForm()

	return m
}

func (m *MaintenanceModel) newForm() *huh.Form {
	f := &maintenanceFields{action: actionExpire, days: strconv.Itoa(m.scheduler.RetentionDays())}
	m.fields = f

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("action").
				Title("Action").
				Options(
					huh.NewOption("Expire lapsed pending payments", actionExpire),
					huh.NewOption("Delete photo folders past retention", actionSweep),
				).
				Value(&f.action),
		),
		huh.NewGroup(
			huh.NewInput().
				Key("days").
				Title("Retention days").
				Value(&f.days).
				Validate(func(s string) error {
					if n, err := strconv.Atoi(strings.TrimSpace(s)); err != nil || n < 1 {
						return fmt.Errorf("days must be a positive integer")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return f.action != actionSweep }),
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title("Run now?").
				Affirmative("Run").
				Negative("Cancel").
				Value(&f.confirm),
		),
	).WithWidth(50).WithShowHelp(false)
}

func (m MaintenanceModel) Title() string { return "Maintenance" }

func (m MaintenanceModel) ShortHelp() string {
	if m.state == maintenanceStateDone {
		return "Esc: back | Enter: run another"
	}

	return "Esc: back"
}

func (m MaintenanceModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m MaintenanceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case maintenanceResultMsg:
		m.state = maintenanceStateDone
		m.result = msg.result
		m.err = msg.err

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc && m.state != maintenanceStateRunning {
			return m, Back
		}

		if msg.Type == tea.KeyEnter && m.state == maintenanceStateDone {
			m.state = maintenanceStateForm
			m.form = m.newForm()

			return m, m.form.Init()
		}
	}

	if m.state != maintenanceStateForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if !m.fields.confirm {
		return m, Back
	}

	m.state = maintenanceStateRunning

	return m, m.runCmd()
}

func (m MaintenanceModel) View() string {
	switch m.state {
	case maintenanceStateRunning:
		return lipgloss.NewStyle().Padding(2).Render("Running...")
	case maintenanceStateDone:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
		}

		return lipgloss.NewStyle().Padding(2).Render(m.result)
	}

	return lipgloss.NewStyle().Padding(1).Render(m.form.View())
}

type maintenanceResultMsg struct {
	result string
	err    error
}

func (m MaintenanceModel) runCmd() tea.Cmd {
	action := m.fields.action
	days, _ := strconv.Atoi(strings.TrimSpace(m.fields.days))

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		now := time.Now()

		if action == actionSweep {
			res, err := m.scheduler.Sweep(ctx, days, now)
			if err != nil {
				return maintenanceResultMsg{err: err}
			}

			out := fmt.Sprintf("Deleted %d folder(s) older than %d days, %d failed.", res.Deleted, days, res.Failed)
			if len(res.FailedFolders) > 0 {
				out += "\n\nFailed: " + activeStyle(strings.Join(res.FailedFolders, ", "))
			}

			return maintenanceResultMsg{result: out}
		}

		res, err := m.txService.ExpireStale(ctx, now)
		if err != nil {
			return maintenanceResultMsg{err: err}
		}

		return maintenanceResultMsg{result: fmt.Sprintf("Expired %d, settled %d, skipped %d.", res.Expired, res.Settled, res.Skipped)}
	}
}
