package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/saga"
)

// Screen is the page the wizard is showing, derived from the machine.
type Screen int

const (
	ScreenReview Screen = iota
	ScreenCalculating
	ScreenResult
	ScreenDeclare
	ScreenSubmitting
	ScreenSubmitted
	ScreenFailed
)

func (s Screen) String() string {
	switch s {
	case ScreenReview:
		return "Review"
	case ScreenCalculating:
		return "Calculating"
	case ScreenResult:
		return "Review Calculation"
	case ScreenDeclare:
		return "Declare & Submit"
	case ScreenSubmitting:
		return "Submitting"
	case ScreenSubmitted:
		return "Submitted"
	case ScreenFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Screen returns the page for the current machine state.
func (m Model) Screen() Screen {
	if m.editing {
		return ScreenReview
	}
	switch m.machine.State() {
	case saga.StateCalculating:
		return ScreenCalculating
	case saga.StateCalculated:
		if m.machine.Step() >= saga.StepDeclare {
			return ScreenDeclare
		}
		return ScreenResult
	case saga.StateDeclaring:
		return ScreenSubmitting
	case saga.StateSubmitted:
		return ScreenSubmitted
	case saga.StateFailed:
		return ScreenFailed
	default:
		return ScreenReview
	}
}

// Update handles all messages and updates the model state
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case calculationDoneMsg:
		if !m.machine.CompleteCalculation(msg.done) {
			m.logger.Debugf("ignored stale calculation for %s attempt %d", msg.done.SagaID, msg.done.Attempt)
			return m, nil
		}
		if msg.done.Err != nil {
			m.logger.Warnf("calculation for %s failed: %v", msg.done.SagaID, msg.done.Err)
			m.err = msg.done.Err
		} else {
			m.status = "Calculation complete"
		}
		return m, m.saveCmd()

	case submissionDoneMsg:
		if !m.machine.CompleteSubmission(msg.done) {
			m.logger.Debugf("ignored stale submission result for %s attempt %d", msg.done.SagaID, msg.done.Attempt)
			return m, nil
		}
		snap := m.machine.Snapshot()
		if snap.State == saga.StateSubmitted {
			m.logger.Infof("submission %s accepted with reference %s", snap.ID, snap.Reference)
		} else {
			m.logger.Warnf("submission %s failed: %s", snap.ID, snap.Failure)
		}
		return m, m.saveCmd()

	case savedMsg:
		if msg.err != nil {
			m.logger.Errorf("failed to save submission %s: %v", msg.id, msg.err)
			m.err = fmt.Errorf("failed to save submission: %w", msg.err)
		}
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.logger.Errorf("failed to delete submission %s: %v", msg.id, msg.err)
			m.err = fmt.Errorf("failed to delete cancelled submission: %w", msg.err)
		}
		return m, nil
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Cancel):
		return m.cancel()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	}

	m.err = nil
	switch m.Screen() {
	case ScreenReview:
		return m.handleReviewKeys(msg)
	case ScreenResult:
		return m.handleResultKeys(msg)
	case ScreenDeclare:
		return m.handleDeclareKeys(msg)
	case ScreenFailed:
		if key.Matches(msg, m.keys.Retry) {
			if err := m.machine.Retry(); err != nil {
				m.err = err
				return m, nil
			}
			m.status = "Ready to resubmit"
			return m, m.saveCmd()
		}
	case ScreenSubmitted:
		if key.Matches(msg, m.keys.Continue) || msg.String() == "q" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Continue):
		return m.submitReview()
	case key.Matches(msg, m.keys.NextField):
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, nil
	case key.Matches(msg, m.keys.Voluntary):
		m.voluntary = !m.voluntary
		return m, nil
	case key.Matches(msg, m.keys.Back) && m.editing:
		m.editing = false
		m.loadInputs(m.machine.Snapshot())
		m.status = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = i
	m.inputs[m.focus].Focus()
}

// submitReview hands the entered figures to the machine and starts the
// calculation.
func (m Model) submitReview() (tea.Model, tea.Cmd) {
	income, err := parseAmount("income", m.inputs[fieldIncome].Value(), true)
	if err != nil {
		m.err = err
		return m, nil
	}
	expenses, err := parseAmount("expenses", m.inputs[fieldExpenses].Value(), true)
	if err != nil {
		m.err = err
		return m, nil
	}
	deducted, err := parseAmount("tax deducted at source", m.inputs[fieldDeducted].Value(), false)
	if err != nil {
		m.err = err
		return m, nil
	}

	if err := m.machine.SetFinancialSummary(domain.NewFinancialSummary(income, expenses)); err != nil {
		m.err = err
		return m, nil
	}
	opts := calculation.Options{TaxDeductedAtSource: deducted, VoluntaryClass2: m.voluntary}
	if err := m.machine.SetCalculationOptions(opts); err != nil {
		m.err = err
		return m, nil
	}
	eff, err := m.machine.ExecuteNextStep()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.editing = false
	m.cursor = 0
	m.status = ""
	return m, tea.Batch(m.effectCmd(eff), m.saveCmd())
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Continue):
		if _, err := m.machine.ExecuteNextStep(); err != nil {
			m.err = err
			return m, nil
		}
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.Edit):
		return m.startEditing(), nil
	}
	return m, nil
}

func (m Model) handleDeclareKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := declaration.Keys()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(keys)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		k := keys[m.cursor]
		var err error
		if m.isConfirmed(k) {
			err = m.machine.RevokeDeclaration(k)
		} else {
			err = m.machine.ConfirmDeclaration(k)
			if err == nil && m.cursor < len(keys)-1 {
				m.cursor++
			}
		}
		if err != nil {
			m.err = err
			return m, nil
		}
		return m, m.saveCmd()
	case key.Matches(msg, m.keys.Continue):
		eff, err := m.machine.ConfirmAndSubmit()
		if err != nil {
			m.err = err
			return m, nil
		}
		m.status = ""
		return m, tea.Batch(m.effectCmd(eff), m.saveCmd())
	case key.Matches(msg, m.keys.Edit):
		return m.startEditing(), nil
	}
	return m, nil
}

func (m Model) startEditing() Model {
	m.editing = true
	m.loadInputs(m.machine.Snapshot())
	m.setFocus(fieldIncome)
	m.status = "Changing figures discards the calculation and any confirmations"
	return m
}

func (m Model) isConfirmed(k declaration.Key) bool {
	for _, c := range m.machine.Snapshot().Confirmed {
		if c == k {
			return true
		}
	}
	return false
}

// cancel discards the submission and starts a fresh one for the same year.
func (m Model) cancel() (tea.Model, tea.Cmd) {
	id := m.machine.ID()
	m.machine.Cancel()
	m.inputs = newInputs()
	m.focus = fieldIncome
	m.voluntary = false
	m.editing = false
	m.cursor = 0
	m.err = nil
	if err := m.machine.StartSubmission(m.taxYear); err != nil {
		m.err = err
		return m, m.deleteCmd(id)
	}
	m.status = "Submission cancelled"
	return m, tea.Batch(m.deleteCmd(id), m.saveCmd())
}
