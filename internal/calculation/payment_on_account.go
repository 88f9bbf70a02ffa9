package calculation

import (
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

// PaymentOnAccountCalculator decides whether advance payments are due.
//
// The instalment is half of this year's income tax plus Class 4 less tax
// deducted at source. HMRC bases the real figure on the previous year's
// balancing payment; this calculator has no prior-year input.
type PaymentOnAccountCalculator struct {
	Rules   domain.PaymentOnAccountRules
	TaxYear domain.TaxYear
}

// NewPaymentOnAccountCalculator creates a payment on account calculator
func NewPaymentOnAccountCalculator(rules domain.PaymentOnAccountRules, taxYear domain.TaxYear) *PaymentOnAccountCalculator {
	return &PaymentOnAccountCalculator{Rules: rules, TaxYear: taxYear}
}

// Calculate returns the requirement for the given liability components.
func (p *PaymentOnAccountCalculator) Calculate(incomeTax, class4, totalLiability, deductedAtSource decimal.Decimal) domain.PaymentOnAccount {
	none := domain.PaymentOnAccount{InstalmentAmount: decimal.Zero}
	if totalLiability.LessThanOrEqual(p.Rules.Threshold) || totalLiability.IsZero() {
		return none
	}
	if deductedAtSource.Div(totalLiability).GreaterThanOrEqual(p.Rules.DeductedAtSourceProportion) {
		return none
	}

	base := incomeTax.Add(class4).Sub(deductedAtSource)
	if base.LessThanOrEqual(decimal.Zero) {
		return none
	}
	return domain.PaymentOnAccount{
		Required:         true,
		InstalmentAmount: base.Div(decimal.NewFromInt(2)),
		FirstDueDate:     p.TaxYear.PaymentDeadline(),
		SecondDueDate:    p.TaxYear.SecondPaymentOnAccountDate(),
	}
}
