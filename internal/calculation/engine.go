package calculation

import (
	"errors"
	"fmt"

	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNegativeDeduction is returned for a negative tax-deducted-at-source figure.
var ErrNegativeDeduction = errors.New("tax deducted at source cannot be negative")

// RateSource supplies the rates for a tax year.
type RateSource interface {
	GetRates(startYear int) (domain.RateSet, error)
}

// RateSourceFunc adapts a plain function to RateSource.
type RateSourceFunc func(startYear int) (domain.RateSet, error)

// GetRates calls f(startYear).
func (f RateSourceFunc) GetRates(startYear int) (domain.RateSet, error) {
	return f(startYear)
}

// Options adjusts a liability calculation.
type Options struct {
	// TaxDeductedAtSource is tax already paid through PAYE or other deductions.
	TaxDeductedAtSource decimal.Decimal
	// VoluntaryClass2 includes voluntary Class 2 contributions in the liability.
	VoluntaryClass2 bool
}

// TaxLiabilityCalculator turns a net profit into a full Self Assessment
// liability. It holds no mutable state and is safe for concurrent use.
type TaxLiabilityCalculator struct {
	rates RateSource
}

// NewTaxLiabilityCalculator creates a calculator reading rates from source.
func NewTaxLiabilityCalculator(source RateSource) *TaxLiabilityCalculator {
	return &TaxLiabilityCalculator{rates: source}
}

// Calculate computes the liability for netProfit in the tax year starting in
// taxYearStartYear. Negative or zero profit is valid and yields zero liability.
func (c *TaxLiabilityCalculator) Calculate(netProfit decimal.Decimal, taxYearStartYear int) (*domain.TaxLiabilityResult, error) {
	return c.CalculateWithOptions(netProfit, taxYearStartYear, Options{})
}

// CalculateWithOptions computes the liability with deductions and opt-ins applied.
func (c *TaxLiabilityCalculator) CalculateWithOptions(netProfit decimal.Decimal, taxYearStartYear int, opts Options) (*domain.TaxLiabilityResult, error) {
	if c.rates == nil {
		return nil, fmt.Errorf("%w: no rate source", domain.ErrInvalidRates)
	}
	rates, err := c.rates.GetRates(taxYearStartYear)
	if err != nil {
		return nil, fmt.Errorf("failed to load rates: %w", err)
	}
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	if opts.TaxDeductedAtSource.IsNegative() {
		return nil, ErrNegativeDeduction
	}

	taxYear := domain.NewTaxYear(taxYearStartYear)
	incomeTax := NewIncomeTaxCalculator(rates).Calculate(netProfit)
	class4 := NewClass4Calculator(rates.Class4).Calculate(netProfit)
	class2 := NewClass2Calculator(rates.Class2).Calculate(netProfit, opts.VoluntaryClass2)

	result := &domain.TaxLiabilityResult{
		TaxYear:             taxYear,
		NetProfit:           netProfit,
		IncomeTax:           incomeTax,
		Class4:              class4,
		Class2:              class2,
		TotalIncomeTax:      incomeTax.TotalIncomeTax,
		NIClass2:            class2.Liability(),
		NIClass4:            class4.Total(),
		TaxDeductedAtSource: opts.TaxDeductedAtSource,
	}
	result.TotalNI = result.NIClass2.Add(result.NIClass4)
	result.TotalLiability = result.TotalIncomeTax.Add(result.TotalNI)
	result.PaymentOnAccount = NewPaymentOnAccountCalculator(rates.PaymentOnAccount, taxYear).
		Calculate(result.TotalIncomeTax, result.NIClass4, result.TotalLiability, opts.TaxDeductedAtSource)

	return result, nil
}
