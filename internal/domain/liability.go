package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TaxCalculationResult is the income tax breakdown across the marginal bands.
type TaxCalculationResult struct {
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	PersonalAllowance decimal.Decimal `json:"personal_allowance"` // after tapering
	TaxableIncome     decimal.Decimal `json:"taxable_income"`

	BasicRateAmount      decimal.Decimal `json:"basic_rate_amount"`
	BasicRateTax         decimal.Decimal `json:"basic_rate_tax"`
	HigherRateAmount     decimal.Decimal `json:"higher_rate_amount"`
	HigherRateTax        decimal.Decimal `json:"higher_rate_tax"`
	AdditionalRateAmount decimal.Decimal `json:"additional_rate_amount"`
	AdditionalRateTax    decimal.Decimal `json:"additional_rate_tax"`

	TotalIncomeTax decimal.Decimal `json:"total_income_tax"`
}

// NICalculationResult is the Class 4 National Insurance breakdown.
type NICalculationResult struct {
	MainRateAmount       decimal.Decimal `json:"main_rate_amount"`
	MainRateNI           decimal.Decimal `json:"main_rate_ni"`
	AdditionalRateAmount decimal.Decimal `json:"additional_rate_amount"`
	AdditionalRateNI     decimal.Decimal `json:"additional_rate_ni"`
}

// Total returns main plus additional rate contributions.
func (r NICalculationResult) Total() decimal.Decimal {
	return r.MainRateNI.Add(r.AdditionalRateNI)
}

// Class2NICalculationResult classifies Class 2 liability. Mandatory and
// Voluntary are mutually exclusive; both are false only for a nil or loss year.
type Class2NICalculationResult struct {
	WeeklyRate  decimal.Decimal `json:"weekly_rate"`
	WeeksLiable int             `json:"weeks_liable"`
	Amount      decimal.Decimal `json:"amount"` // shown for voluntary payers too
	Mandatory   bool            `json:"mandatory"`
	Voluntary   bool            `json:"voluntary"`
	OptedIn     bool            `json:"opted_in,omitempty"`
}

// Liability is the Class 2 amount that counts towards the tax bill: the full
// amount when mandatory, or when a voluntary payer has opted in.
func (r Class2NICalculationResult) Liability() decimal.Decimal {
	if r.Mandatory || (r.Voluntary && r.OptedIn) {
		return r.Amount
	}
	return decimal.Zero
}

// PaymentOnAccount describes the advance payments towards the next tax year.
type PaymentOnAccount struct {
	Required         bool            `json:"required"`
	InstalmentAmount decimal.Decimal `json:"instalment_amount"`
	FirstDueDate     time.Time       `json:"first_due_date,omitempty"`
	SecondDueDate    time.Time       `json:"second_due_date,omitempty"`
}

// Total returns both instalments together.
func (p PaymentOnAccount) Total() decimal.Decimal {
	return p.InstalmentAmount.Mul(decimal.NewFromInt(2))
}

// TaxLiabilityResult aggregates a full Self Assessment liability. TotalNI and
// TotalLiability are exact sums of their components; rounding happens only
// when a figure is displayed.
type TaxLiabilityResult struct {
	TaxYear   TaxYear         `json:"tax_year"`
	NetProfit decimal.Decimal `json:"net_profit"`

	IncomeTax TaxCalculationResult      `json:"income_tax"`
	Class4    NICalculationResult       `json:"class4"`
	Class2    Class2NICalculationResult `json:"class2"`

	TotalIncomeTax      decimal.Decimal `json:"total_income_tax"`
	NIClass2            decimal.Decimal `json:"ni_class2"`
	NIClass4            decimal.Decimal `json:"ni_class4"`
	TotalNI             decimal.Decimal `json:"total_ni"`
	TotalLiability      decimal.Decimal `json:"total_liability"`
	TaxDeductedAtSource decimal.Decimal `json:"tax_deducted_at_source"`

	PaymentOnAccount PaymentOnAccount `json:"payment_on_account"`
}

// BalanceDue is the liability left to pay after tax deducted at source.
func (r *TaxLiabilityResult) BalanceDue() decimal.Decimal {
	due := r.TotalLiability.Sub(r.TaxDeductedAtSource)
	if due.IsNegative() {
		return decimal.Zero
	}
	return due
}

// Round2 rounds an amount to pence for display.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
