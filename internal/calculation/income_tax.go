package calculation

import (
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

// IncomeTaxCalculator applies the UK marginal income tax bands to profit.
type IncomeTaxCalculator struct {
	Rates domain.RateSet
}

// NewIncomeTaxCalculator creates an income tax calculator for one tax year's rates
func NewIncomeTaxCalculator(rates domain.RateSet) *IncomeTaxCalculator {
	return &IncomeTaxCalculator{Rates: rates}
}

// PersonalAllowance returns the allowance after tapering. Above the taper
// threshold the allowance falls by the taper rate for every pound of excess,
// never below zero.
func (itc *IncomeTaxCalculator) PersonalAllowance(netProfit decimal.Decimal) decimal.Decimal {
	allowance := itc.Rates.PersonalAllowance
	threshold := itc.Rates.AllowanceTaperThreshold
	if threshold.IsZero() || netProfit.LessThanOrEqual(threshold) {
		return allowance
	}
	reduction := netProfit.Sub(threshold).Mul(itc.Rates.AllowanceTaperRate)
	return decimal.Max(decimal.Zero, allowance.Sub(reduction))
}

// Calculate returns the income tax breakdown. Zero or negative profit
// yields an all-zero result.
func (itc *IncomeTaxCalculator) Calculate(netProfit decimal.Decimal) domain.TaxCalculationResult {
	result := domain.TaxCalculationResult{
		GrossProfit:          netProfit,
		PersonalAllowance:    itc.Rates.PersonalAllowance,
		TaxableIncome:        decimal.Zero,
		BasicRateAmount:      decimal.Zero,
		BasicRateTax:         decimal.Zero,
		HigherRateAmount:     decimal.Zero,
		HigherRateTax:        decimal.Zero,
		AdditionalRateAmount: decimal.Zero,
		AdditionalRateTax:    decimal.Zero,
		TotalIncomeTax:       decimal.Zero,
	}
	if netProfit.LessThanOrEqual(decimal.Zero) {
		return result
	}

	allowance := itc.PersonalAllowance(netProfit)
	taxable := decimal.Max(decimal.Zero, netProfit.Sub(allowance))
	result.PersonalAllowance = allowance
	result.TaxableIncome = taxable

	slices := applyBands(taxable, []band{
		{Width: itc.Rates.BasicRateLimit, Rate: itc.Rates.BasicRate},
		{Width: itc.Rates.HigherRateLimit.Sub(itc.Rates.BasicRateLimit), Rate: itc.Rates.HigherRate},
		{Unbounded: true, Rate: itc.Rates.AdditionalRate},
	})

	result.BasicRateAmount, result.BasicRateTax = slices[0].Amount, slices[0].Tax
	result.HigherRateAmount, result.HigherRateTax = slices[1].Amount, slices[1].Tax
	result.AdditionalRateAmount, result.AdditionalRateTax = slices[2].Amount, slices[2].Tax
	result.TotalIncomeTax = result.BasicRateTax.Add(result.HigherRateTax).Add(result.AdditionalRateTax)
	return result
}
