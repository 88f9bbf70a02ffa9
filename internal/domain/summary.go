package domain

import "github.com/shopspring/decimal"

// FinancialSummary is the self-employment income and allowable expenses for
// a tax year. Net profit is always derived, never stored.
type FinancialSummary struct {
	Income   *decimal.Decimal `json:"income,omitempty"`
	Expenses *decimal.Decimal `json:"expenses,omitempty"`
}

// NewFinancialSummary returns a summary with both figures present.
func NewFinancialSummary(income, expenses decimal.Decimal) FinancialSummary {
	return FinancialSummary{Income: &income, Expenses: &expenses}
}

// Complete reports whether income and expenses are both present.
func (fs FinancialSummary) Complete() bool {
	return fs.Income != nil && fs.Expenses != nil
}

// NetProfit returns income minus expenses. A negative value is a loss.
func (fs FinancialSummary) NetProfit() decimal.Decimal {
	income, expenses := decimal.Zero, decimal.Zero
	if fs.Income != nil {
		income = *fs.Income
	}
	if fs.Expenses != nil {
		expenses = *fs.Expenses
	}
	return income.Sub(expenses)
}
