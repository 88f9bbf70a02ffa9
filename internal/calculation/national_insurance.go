package calculation

import (
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

// WeeksInYear is the number of Class 2 contribution weeks charged for a full year.
const WeeksInYear = 52

// Class4Calculator computes Class 4 National Insurance on profits.
type Class4Calculator struct {
	Rates domain.Class4Rates
}

// NewClass4Calculator creates a Class 4 calculator
func NewClass4Calculator(rates domain.Class4Rates) *Class4Calculator {
	return &Class4Calculator{Rates: rates}
}

// Calculate applies the main rate between the lower and upper profits limits
// and the additional rate above the upper limit. Profit is used directly,
// not taxable income.
func (c *Class4Calculator) Calculate(netProfit decimal.Decimal) domain.NICalculationResult {
	result := domain.NICalculationResult{
		MainRateAmount:       decimal.Zero,
		MainRateNI:           decimal.Zero,
		AdditionalRateAmount: decimal.Zero,
		AdditionalRateNI:     decimal.Zero,
	}
	if netProfit.LessThanOrEqual(c.Rates.LowerProfitsLimit) {
		return result
	}

	slices := applyBands(netProfit.Sub(c.Rates.LowerProfitsLimit), []band{
		{Width: c.Rates.UpperProfitsLimit.Sub(c.Rates.LowerProfitsLimit), Rate: c.Rates.MainRate},
		{Unbounded: true, Rate: c.Rates.AdditionalRate},
	})
	result.MainRateAmount, result.MainRateNI = slices[0].Amount, slices[0].Tax
	result.AdditionalRateAmount, result.AdditionalRateNI = slices[1].Amount, slices[1].Tax
	return result
}

// Class2Calculator classifies Class 2 National Insurance liability.
type Class2Calculator struct {
	Rates domain.Class2Rates
}

// NewClass2Calculator creates a Class 2 calculator
func NewClass2Calculator(rates domain.Class2Rates) *Class2Calculator {
	return &Class2Calculator{Rates: rates}
}

// Calculate classifies profit against the Small Profits Threshold:
// at or above it contributions are mandatory; between zero and the
// threshold they are voluntary (the amount is still reported); a loss or
// nil profit has no Class 2 at all.
func (c *Class2Calculator) Calculate(netProfit decimal.Decimal, optIn bool) domain.Class2NICalculationResult {
	result := domain.Class2NICalculationResult{
		WeeklyRate: c.Rates.WeeklyRate,
		Amount:     decimal.Zero,
	}
	if netProfit.LessThanOrEqual(decimal.Zero) {
		return result
	}

	result.WeeksLiable = WeeksInYear
	result.Amount = c.Rates.WeeklyRate.Mul(decimal.NewFromInt(WeeksInYear))
	if netProfit.GreaterThanOrEqual(c.Rates.SmallProfitsThreshold) {
		result.Mandatory = true
	} else {
		result.Voluntary = true
		result.OptedIn = optIn
	}
	return result
}
