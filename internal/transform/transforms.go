package transform

import (
	"fmt"

	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ShiftTaxYear prices the same figures in an earlier or later tax year.
type ShiftTaxYear struct {
	Years int
}

func (t *ShiftTaxYear) Apply(base Scenario) (Scenario, error) {
	base.TaxYear = domain.NewTaxYear(base.TaxYear.StartYear + t.Years)
	return base, nil
}

func (t *ShiftTaxYear) Name() string { return "shift_tax_year" }

func (t *ShiftTaxYear) Description() string {
	if t.Years < 0 {
		return fmt.Sprintf("Move back %d tax year(s)", -t.Years)
	}
	return fmt.Sprintf("Move forward %d tax year(s)", t.Years)
}

func (t *ShiftTaxYear) Validate(base Scenario) error {
	if t.Years == 0 {
		return &TransformError{TransformName: t.Name(), Operation: "validate", Reason: "years must not be zero"}
	}
	if base.TaxYear.StartYear+t.Years < 1 {
		return &TransformError{TransformName: t.Name(), Operation: "validate", Reason: "resulting tax year is out of range"}
	}
	return nil
}

// AdjustProfit adds Amount to the net profit. A negative amount reduces it
// and may turn it into a loss.
type AdjustProfit struct {
	Amount decimal.Decimal
}

func (t *AdjustProfit) Apply(base Scenario) (Scenario, error) {
	base.NetProfit = base.NetProfit.Add(t.Amount)
	return base, nil
}

func (t *AdjustProfit) Name() string { return "adjust_profit" }

func (t *AdjustProfit) Description() string {
	if t.Amount.IsNegative() {
		return fmt.Sprintf("Reduce net profit by %s", t.Amount.Abs().StringFixed(2))
	}
	return fmt.Sprintf("Increase net profit by %s", t.Amount.StringFixed(2))
}

func (t *AdjustProfit) Validate(Scenario) error {
	if t.Amount.IsZero() {
		return &TransformError{TransformName: t.Name(), Operation: "validate", Reason: "amount must not be zero"}
	}
	return nil
}

// ScaleProfit changes the net profit by Percent, e.g. 10 for +10%.
type ScaleProfit struct {
	Percent decimal.Decimal
}

func (t *ScaleProfit) Apply(base Scenario) (Scenario, error) {
	factor := hundred.Add(t.Percent).Div(hundred)
	base.NetProfit = domain.Round2(base.NetProfit.Mul(factor))
	return base, nil
}

func (t *ScaleProfit) Name() string { return "scale_profit" }

func (t *ScaleProfit) Description() string {
	return fmt.Sprintf("Change net profit by %s%%", t.Percent.String())
}

func (t *ScaleProfit) Validate(Scenario) error {
	if t.Percent.LessThanOrEqual(hundred.Neg()) {
		return &TransformError{TransformName: t.Name(), Operation: "validate", Reason: "percent must be greater than -100"}
	}
	return nil
}

// SetVoluntaryClass2 opts in to or out of voluntary Class 2 contributions.
type SetVoluntaryClass2 struct {
	Enabled bool
}

func (t *SetVoluntaryClass2) Apply(base Scenario) (Scenario, error) {
	base.Options.VoluntaryClass2 = t.Enabled
	return base, nil
}

func (t *SetVoluntaryClass2) Name() string { return "voluntary_class2" }

func (t *SetVoluntaryClass2) Description() string {
	if t.Enabled {
		return "Pay voluntary Class 2 NI"
	}
	return "Do not pay voluntary Class 2 NI"
}

func (t *SetVoluntaryClass2) Validate(Scenario) error { return nil }

// SetTaxDeducted replaces the tax already deducted at source.
type SetTaxDeducted struct {
	Amount decimal.Decimal
}

func (t *SetTaxDeducted) Apply(base Scenario) (Scenario, error) {
	base.Options.TaxDeductedAtSource = t.Amount
	return base, nil
}

func (t *SetTaxDeducted) Name() string { return "set_tax_deducted" }

func (t *SetTaxDeducted) Description() string {
	return fmt.Sprintf("Tax deducted at source of %s", t.Amount.StringFixed(2))
}

func (t *SetTaxDeducted) Validate(Scenario) error {
	if t.Amount.IsNegative() {
		return &TransformError{TransformName: t.Name(), Operation: "validate", Reason: "amount cannot be negative"}
	}
	return nil
}
