package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validRateSet() RateSet {
	return RateSet{
		TaxYear:                 NewTaxYear(2025),
		PersonalAllowance:       decimal.NewFromInt(12570),
		AllowanceTaperThreshold: decimal.NewFromInt(100000),
		AllowanceTaperRate:      decimal.RequireFromString("0.5"),
		BasicRateLimit:          decimal.NewFromInt(37700),
		HigherRateLimit:         decimal.NewFromInt(125140),
		BasicRate:               decimal.RequireFromString("0.20"),
		HigherRate:              decimal.RequireFromString("0.40"),
		AdditionalRate:          decimal.RequireFromString("0.45"),
		Class4: Class4Rates{
			LowerProfitsLimit: decimal.NewFromInt(12570),
			UpperProfitsLimit: decimal.NewFromInt(50270),
			MainRate:          decimal.RequireFromString("0.06"),
			AdditionalRate:    decimal.RequireFromString("0.02"),
		},
		Class2: Class2Rates{
			WeeklyRate:            decimal.RequireFromString("3.50"),
			SmallProfitsThreshold: decimal.NewFromInt(6845),
		},
		PaymentOnAccount: PaymentOnAccountRules{
			Threshold:                  decimal.NewFromInt(1000),
			DeductedAtSourceProportion: decimal.RequireFromString("0.80"),
		},
	}
}

func TestRateSetValidate(t *testing.T) {
	assert.NoError(t, validRateSet().Validate())

	tests := []struct {
		name   string
		mutate func(*RateSet)
	}{
		{"negative allowance", func(rs *RateSet) { rs.PersonalAllowance = decimal.NewFromInt(-1) }},
		{"rate above one", func(rs *RateSet) { rs.HigherRate = decimal.RequireFromString("1.4") }},
		{"negative class4 rate", func(rs *RateSet) { rs.Class4.MainRate = decimal.RequireFromString("-0.06") }},
		{"missing basic band", func(rs *RateSet) { rs.BasicRateLimit = decimal.Zero }},
		{"inverted income bands", func(rs *RateSet) { rs.HigherRateLimit = decimal.NewFromInt(1000) }},
		{"inverted class4 limits", func(rs *RateSet) { rs.Class4.UpperProfitsLimit = decimal.NewFromInt(100) }},
		{"negative class2 weekly rate", func(rs *RateSet) { rs.Class2.WeeklyRate = decimal.NewFromInt(-3) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := validRateSet()
			tt.mutate(&rs)
			err := rs.Validate()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRates))
		})
	}
}

func TestRateSetThresholds(t *testing.T) {
	rs := validRateSet()
	assert.True(t, rs.BasicRateThreshold().Equal(decimal.NewFromInt(50270)))
	assert.True(t, rs.AdditionalRateThreshold().Equal(decimal.NewFromInt(125140)))
}

func TestUnconfiguredTaxYearError(t *testing.T) {
	err := error(&UnconfiguredTaxYearError{StartYear: 2031})
	assert.Equal(t, "no rates configured for tax year 2031/32", err.Error())
	assert.True(t, IsUnconfiguredTaxYear(err))
	assert.False(t, IsUnconfiguredTaxYear(errors.New("other")))
}

func TestFinancialSummary(t *testing.T) {
	var empty FinancialSummary
	assert.False(t, empty.Complete())
	assert.True(t, empty.NetProfit().IsZero())

	fs := NewFinancialSummary(decimal.NewFromInt(50000), decimal.NewFromInt(10000))
	assert.True(t, fs.Complete())
	assert.Equal(t, "40000", fs.NetProfit().String())

	loss := NewFinancialSummary(decimal.NewFromInt(1000), decimal.NewFromInt(1500))
	assert.Equal(t, "-500", loss.NetProfit().String())
}

func TestClass2Liability(t *testing.T) {
	amount := decimal.RequireFromString("182")
	assert.True(t, Class2NICalculationResult{Amount: amount, Mandatory: true}.Liability().Equal(amount))
	assert.True(t, Class2NICalculationResult{Amount: amount, Voluntary: true}.Liability().IsZero())
	assert.True(t, Class2NICalculationResult{Amount: amount, Voluntary: true, OptedIn: true}.Liability().Equal(amount))
}
