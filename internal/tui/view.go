package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/output"
	"github.com/rgehrsitz/satax/internal/saga"
	"github.com/rgehrsitz/satax/internal/tui/components"
)

var stepTitles = []string{
	saga.StepReview.Title(),
	saga.StepCalculate.Title(),
	saga.StepReviewCalculation.Title(),
	saga.StepDeclare.Title(),
}

// View renders the current state of the application
func (m Model) View() string {
	var content string
	switch m.Screen() {
	case ScreenReview:
		content = m.renderReview()
	case ScreenCalculating:
		content = m.renderBusy("Calculating your tax liability...")
	case ScreenResult:
		content = m.renderResult()
	case ScreenDeclare:
		content = m.renderDeclare()
	case ScreenSubmitting:
		content = m.renderBusy("Submitting your return to HMRC...")
	case ScreenSubmitted:
		content = m.renderSubmitted()
	case ScreenFailed:
		content = m.renderFailed()
	default:
		content = "Unknown screen"
	}

	return m.renderApp(content)
}

// renderApp wraps content with title bar, status bar, and main container
func (m Model) renderApp(content string) string {
	parts := []string{m.renderTitleBar(), content}
	if m.err != nil {
		parts = append(parts, ErrorStyle.Render("Error: "+m.err.Error()))
	} else if m.status != "" {
		parts = append(parts, InfoStyle.Render(m.status))
	}
	parts = append(parts, m.renderStatusBar())
	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) renderTitleBar() string {
	title := TitleStyle.Render("Self Assessment " + m.taxYear.Label())
	current := int(m.machine.Step())
	if m.editing {
		current = int(saga.StepReview)
	}
	stepper := components.NewStepper(stepTitles, current).Render()
	return lipgloss.JoinVertical(lipgloss.Left, title, stepper, "")
}

func (m Model) renderStatusBar() string {
	return StatusBarStyle.Render(m.help.View(m.keys))
}

func (m Model) renderReview() string {
	var b strings.Builder
	b.WriteString(SubtitleStyle.Render("Enter your self-employment figures for the tax year."))
	b.WriteString("\n\n")

	labels := [fieldCount]string{
		fieldIncome:   "Turnover",
		fieldExpenses: "Allowable expenses",
		fieldDeducted: "Tax deducted at source",
	}
	for i, in := range m.inputs {
		label := MetricLabelStyle.Width(24).Render(labels[i])
		b.WriteString(label + in.View() + "\n")
	}

	if profit, ok := m.previewProfit(); ok {
		b.WriteString("\n" + MetricLabelStyle.Width(24).Render("Net profit") + TotalValueStyle.Render(output.FormatCurrency(profit)) + "\n")
	}

	box := "[ ]"
	if m.voluntary {
		box = SuccessStyle.Render("[✓]")
	}
	b.WriteString("\n" + box + " Pay voluntary Class 2 NI if profits are below the Small Profits Threshold\n")

	hint := "enter: calculate   tab: next field   ctrl+o: voluntary Class 2"
	if m.editing {
		hint += "   esc: keep current calculation"
	}
	b.WriteString("\n" + SubtitleStyle.Render(hint))
	return ActiveBorderStyle.Render(b.String())
}

// previewProfit shows net profit while the figures are being typed.
func (m Model) previewProfit() (decimal.Decimal, bool) {
	income, err := parseAmount("income", m.inputs[fieldIncome].Value(), true)
	if err != nil {
		return decimal.Zero, false
	}
	expenses, err := parseAmount("expenses", m.inputs[fieldExpenses].Value(), true)
	if err != nil {
		return decimal.Zero, false
	}
	return domain.NewFinancialSummary(income, expenses).NetProfit(), true
}

func (m Model) renderBusy(label string) string {
	return BorderStyle.Render(m.spinner.View() + " " + label)
}

func (m Model) renderResult() string {
	r := m.machine.Snapshot().Result
	if r == nil {
		return BorderStyle.Render("No calculation available")
	}
	return lipgloss.JoinVertical(lipgloss.Left, renderLiability(r), "",
		SubtitleStyle.Render("enter: continue to declaration   e: edit figures"))
}

func renderLiability(r *domain.TaxLiabilityResult) string {
	cards := []*components.MetricCard{
		components.NewMetricCard("Net profit", output.FormatCurrency(r.NetProfit)),
		components.NewMetricCard("Income tax", output.FormatCurrency(r.TotalIncomeTax)).
			WithDescription("Allowance " + output.FormatCurrency(r.IncomeTax.PersonalAllowance)),
		components.NewMetricCard("Class 4 NI", output.FormatCurrency(r.NIClass4)),
		components.NewMetricCard("Class 2 NI", output.FormatCurrency(r.NIClass2)).
			WithDescription(output.Class2Status(r.Class2)),
		components.NewMetricCard("Total liability", output.FormatCurrency(r.TotalLiability)).WithHighlight(),
		components.NewMetricCard("Balance due", output.FormatCurrency(r.BalanceDue())).
			WithDescription("by " + r.TaxYear.PaymentDeadline().Format("2 Jan 2006")),
	}
	grid := components.MetricGrid(cards, 3)

	poa := r.PaymentOnAccount
	var note string
	if poa.Required {
		note = fmt.Sprintf("Payments on account: %s due %s and %s",
			output.FormatCurrency(poa.InstalmentAmount),
			poa.FirstDueDate.Format("2 Jan 2006"),
			poa.SecondDueDate.Format("2 Jan 2006"))
	} else {
		note = "No payments on account required"
	}
	return lipgloss.JoinVertical(lipgloss.Left, grid, "", InfoStyle.Render(note))
}

func (m Model) renderDeclare() string {
	snap := m.machine.Snapshot()
	confirmed := make(map[declaration.Key]bool, len(snap.Confirmed))
	for _, k := range snap.Confirmed {
		confirmed[k] = true
	}

	list := components.Checklist{Cursor: m.cursor, Width: max(m.width-12, 40)}
	for _, k := range declaration.Keys() {
		list.Items = append(list.Items, components.ChecklistItem{
			Title:   keyTitle(k),
			Detail:  k.Text(),
			Checked: confirmed[k],
		})
	}
	progress := components.NewProgressBar(len(snap.Confirmed), declaration.Count()).
		WithLabel("Declarations").Render()

	hint := "space: confirm   enter: submit to HMRC   e: edit figures"
	if snap.Result != nil {
		hint = "Total liability " + output.FormatCurrency(snap.Result.TotalLiability) + "   " + hint
	}
	body := lipgloss.JoinVertical(lipgloss.Left, list.Render(), "", progress, "", SubtitleStyle.Render(hint))
	style := BorderStyle
	if m.machine.CanSubmit() {
		style = ActiveBorderStyle
	}
	return style.Render(body)
}

func keyTitle(k declaration.Key) string {
	title := strings.ReplaceAll(string(k), "_", " ")
	if title == "" {
		return title
	}
	return strings.ToUpper(title[:1]) + title[1:]
}

func (m Model) renderSubmitted() string {
	snap := m.machine.Snapshot()
	lines := []string{
		SuccessStyle.Render("Your return has been submitted."),
		"",
		MetricLabelStyle.Render("HMRC reference: ") + TotalValueStyle.Render(snap.Reference),
	}
	if snap.Declaration != nil {
		lines = append(lines, MetricLabelStyle.Render("Declaration: ")+snap.Declaration.ID)
	}
	if snap.Result != nil {
		lines = append(lines, "", renderLiability(snap.Result))
	}
	lines = append(lines, "", SubtitleStyle.Render("enter: exit"))
	return BorderStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) renderFailed() string {
	snap := m.machine.Snapshot()
	return BorderStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		ErrorStyle.Render("Submission failed"),
		"",
		WarningStyle.Render(snap.Failure),
		"",
		SubtitleStyle.Render("r: retry with the same declaration   ctrl+x: cancel submission"),
	))
}
