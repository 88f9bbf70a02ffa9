package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RateSet contains the statutory income tax and National Insurance
// parameters for one tax year. Band limits are expressed in taxable income
// (after the personal allowance), matching how HMRC publishes the basic rate
// band; profits limits for Class 4 are expressed in profit.
type RateSet struct {
	TaxYear TaxYear `yaml:"-" json:"tax_year"`

	PersonalAllowance       decimal.Decimal `yaml:"personal_allowance" json:"personal_allowance"`
	AllowanceTaperThreshold decimal.Decimal `yaml:"allowance_taper_threshold" json:"allowance_taper_threshold"` // zero disables tapering
	AllowanceTaperRate      decimal.Decimal `yaml:"allowance_taper_rate" json:"allowance_taper_rate"`           // allowance lost per £1 over threshold

	BasicRateLimit  decimal.Decimal `yaml:"basic_rate_limit" json:"basic_rate_limit"`
	HigherRateLimit decimal.Decimal `yaml:"higher_rate_limit" json:"higher_rate_limit"`
	BasicRate       decimal.Decimal `yaml:"basic_rate" json:"basic_rate"`
	HigherRate      decimal.Decimal `yaml:"higher_rate" json:"higher_rate"`
	AdditionalRate  decimal.Decimal `yaml:"additional_rate" json:"additional_rate"`

	Class4 Class4Rates `yaml:"class4" json:"class4"`
	Class2 Class2Rates `yaml:"class2" json:"class2"`

	PaymentOnAccount PaymentOnAccountRules `yaml:"payment_on_account" json:"payment_on_account"`
}

// Class4Rates contains the Class 4 National Insurance profits limits and rates.
type Class4Rates struct {
	LowerProfitsLimit decimal.Decimal `yaml:"lower_profits_limit" json:"lower_profits_limit"`
	UpperProfitsLimit decimal.Decimal `yaml:"upper_profits_limit" json:"upper_profits_limit"`
	MainRate          decimal.Decimal `yaml:"main_rate" json:"main_rate"`
	AdditionalRate    decimal.Decimal `yaml:"additional_rate" json:"additional_rate"`
}

// Class2Rates contains the Class 2 weekly rate and Small Profits Threshold.
type Class2Rates struct {
	WeeklyRate            decimal.Decimal `yaml:"weekly_rate" json:"weekly_rate"`
	SmallProfitsThreshold decimal.Decimal `yaml:"small_profits_threshold" json:"small_profits_threshold"`
}

// PaymentOnAccountRules decide when advance payments are due.
type PaymentOnAccountRules struct {
	Threshold                  decimal.Decimal `yaml:"threshold" json:"threshold"`
	DeductedAtSourceProportion decimal.Decimal `yaml:"deducted_at_source_proportion" json:"deducted_at_source_proportion"`
}

// BasicRateThreshold is the gross income at which higher rate starts for
// someone entitled to the full personal allowance.
func (rs RateSet) BasicRateThreshold() decimal.Decimal {
	return rs.PersonalAllowance.Add(rs.BasicRateLimit)
}

// AdditionalRateThreshold is the taxable income above which additional rate applies.
func (rs RateSet) AdditionalRateThreshold() decimal.Decimal {
	return rs.HigherRateLimit
}

// Validate rejects negative values, rates outside [0,1] and inverted limits.
func (rs RateSet) Validate() error {
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"personal_allowance", rs.PersonalAllowance},
		{"allowance_taper_threshold", rs.AllowanceTaperThreshold},
		{"basic_rate_limit", rs.BasicRateLimit},
		{"higher_rate_limit", rs.HigherRateLimit},
		{"class4.lower_profits_limit", rs.Class4.LowerProfitsLimit},
		{"class4.upper_profits_limit", rs.Class4.UpperProfitsLimit},
		{"class2.weekly_rate", rs.Class2.WeeklyRate},
		{"class2.small_profits_threshold", rs.Class2.SmallProfitsThreshold},
		{"payment_on_account.threshold", rs.PaymentOnAccount.Threshold},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return fmt.Errorf("%w: %s cannot be negative (%s)", ErrInvalidRates, a.name, a.value)
		}
	}

	one := decimal.NewFromInt(1)
	rates := []struct {
		name  string
		value decimal.Decimal
	}{
		{"allowance_taper_rate", rs.AllowanceTaperRate},
		{"basic_rate", rs.BasicRate},
		{"higher_rate", rs.HigherRate},
		{"additional_rate", rs.AdditionalRate},
		{"class4.main_rate", rs.Class4.MainRate},
		{"class4.additional_rate", rs.Class4.AdditionalRate},
		{"payment_on_account.deducted_at_source_proportion", rs.PaymentOnAccount.DeductedAtSourceProportion},
	}
	for _, r := range rates {
		if r.value.IsNegative() || r.value.GreaterThan(one) {
			return fmt.Errorf("%w: %s must be between 0 and 1 (%s)", ErrInvalidRates, r.name, r.value)
		}
	}

	if rs.BasicRateLimit.IsZero() {
		return fmt.Errorf("%w: basic_rate_limit is required", ErrInvalidRates)
	}
	if rs.HigherRateLimit.LessThan(rs.BasicRateLimit) {
		return fmt.Errorf("%w: higher_rate_limit %s is below basic_rate_limit %s", ErrInvalidRates, rs.HigherRateLimit, rs.BasicRateLimit)
	}
	if rs.Class4.UpperProfitsLimit.LessThan(rs.Class4.LowerProfitsLimit) {
		return fmt.Errorf("%w: class4 upper profits limit %s is below lower profits limit %s",
			ErrInvalidRates, rs.Class4.UpperProfitsLimit, rs.Class4.LowerProfitsLimit)
	}
	return nil
}
