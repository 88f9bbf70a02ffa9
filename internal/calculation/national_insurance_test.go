package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClass4Calculator_Calculate(t *testing.T) {
	tests := []struct {
		name       string
		year       int
		profit     string
		mainAmount string
		mainNI     string
		addlAmount string
		addlNI     string
	}{
		{"loss", 2025, "-500", "0", "0", "0", "0"},
		{"below lower limit", 2025, "10000", "0", "0", "0", "0"},
		{"at lower limit", 2025, "12570", "0", "0", "0", "0"},
		{"main rate", 2025, "40000", "27430", "1645.80", "0", "0"},
		{"at upper limit", 2025, "50270", "37700", "2262", "0", "0"},
		{"additional rate", 2025, "60000", "37700", "2262", "9730", "194.60"},
		{"2023 main rate", 2023, "40000", "27430", "2468.70", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewClass4Calculator(ratesFor(t, tt.year).Class4).Calculate(dec(tt.profit))
			assert.True(t, r.MainRateAmount.Equal(dec(tt.mainAmount)), "main amount: got %s", r.MainRateAmount)
			assert.True(t, r.MainRateNI.Equal(dec(tt.mainNI)), "main NI: got %s", r.MainRateNI)
			assert.True(t, r.AdditionalRateAmount.Equal(dec(tt.addlAmount)), "additional amount: got %s", r.AdditionalRateAmount)
			assert.True(t, r.AdditionalRateNI.Equal(dec(tt.addlNI)), "additional NI: got %s", r.AdditionalRateNI)
			assert.True(t, r.Total().Equal(r.MainRateNI.Add(r.AdditionalRateNI)))
		})
	}
}

func TestClass2Calculator_Classification(t *testing.T) {
	calc := NewClass2Calculator(ratesFor(t, 2025).Class2)

	tests := []struct {
		name      string
		profit    string
		mandatory bool
		voluntary bool
		weeks     int
		amount    string
	}{
		{"loss", "-500", false, false, 0, "0"},
		{"break even", "0", false, false, 0, "0"},
		{"one penny", "0.01", false, true, 52, "182"},
		{"below threshold", "6844.99", false, true, 52, "182"},
		{"at threshold", "6845", true, false, 52, "182"},
		{"above threshold", "40000", true, false, 52, "182"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := calc.Calculate(dec(tt.profit), false)
			assert.Equal(t, tt.mandatory, r.Mandatory)
			assert.Equal(t, tt.voluntary, r.Voluntary)
			assert.Equal(t, tt.weeks, r.WeeksLiable)
			assert.True(t, r.Amount.Equal(dec(tt.amount)), "amount: got %s", r.Amount)
			assert.True(t, r.WeeklyRate.Equal(dec("3.50")))
		})
	}
}

func TestClass2Calculator_Exclusivity(t *testing.T) {
	calc := NewClass2Calculator(ratesFor(t, 2024).Class2)
	for cents := int64(-100000); cents <= 2000000; cents += 1237 {
		profit := decimal.New(cents, -2)
		r := calc.Calculate(profit, false)
		assert.False(t, r.Mandatory && r.Voluntary, "profit %s is both mandatory and voluntary", profit)
		if profit.LessThanOrEqual(decimal.Zero) {
			assert.False(t, r.Mandatory || r.Voluntary, "profit %s should be neither", profit)
		} else {
			assert.True(t, r.Mandatory || r.Voluntary, "profit %s should be classified", profit)
		}
	}
}

func TestClass2Calculator_VoluntaryOptIn(t *testing.T) {
	calc := NewClass2Calculator(ratesFor(t, 2025).Class2)

	notOpted := calc.Calculate(dec("5000"), false)
	assert.True(t, notOpted.Liability().IsZero())
	assert.True(t, notOpted.Amount.Equal(dec("182")))

	opted := calc.Calculate(dec("5000"), true)
	assert.True(t, opted.Liability().Equal(dec("182")))

	mandatoryIgnoresOptIn := calc.Calculate(dec("40000"), false)
	assert.False(t, mandatoryIgnoresOptIn.OptedIn)
	assert.True(t, mandatoryIgnoresOptIn.Liability().Equal(dec("182")))
}
