package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxYearFor(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		expected int
	}{
		{"5 April belongs to previous year", time.Date(2025, time.April, 5, 12, 0, 0, 0, time.UTC), 2024},
		{"6 April starts new year", time.Date(2025, time.April, 6, 12, 0, 0, 0, time.UTC), 2025},
		{"January belongs to previous start year", time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC), 2025},
		{"December", time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC), 2025},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TaxYearFor(tt.date).StartYear)
		})
	}
}

func TestCurrentTaxYear(t *testing.T) {
	now := func() time.Time { return time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC) }
	assert.Equal(t, NewTaxYear(2026), CurrentTaxYear(now))
}

func TestTaxYearDates(t *testing.T) {
	ty := NewTaxYear(2025)

	start := ty.Start()
	assert.Equal(t, 2025, start.Year())
	assert.Equal(t, time.April, start.Month())
	assert.Equal(t, 6, start.Day())

	end := ty.End()
	assert.Equal(t, 2026, end.Year())
	assert.Equal(t, time.April, end.Month())
	assert.Equal(t, 5, end.Day())

	filing := ty.OnlineFilingDeadline()
	assert.Equal(t, 2027, filing.Year())
	assert.Equal(t, time.January, filing.Month())
	assert.Equal(t, 31, filing.Day())

	assert.Equal(t, ty.PaymentDeadline(), ty.OnlineFilingDeadline())

	paper := ty.PaperFilingDeadline()
	assert.Equal(t, 2026, paper.Year())
	assert.Equal(t, time.October, paper.Month())

	second := ty.SecondPaymentOnAccountDate()
	assert.Equal(t, 2027, second.Year())
	assert.Equal(t, time.July, second.Month())

	assert.True(t, ty.Contains(time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, ty.Contains(time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, ty.End().Before(ty.Next().Start()))
}

func TestTaxYearLabels(t *testing.T) {
	assert.Equal(t, "2025/26", NewTaxYear(2025).Label())
	assert.Equal(t, "2025-26", NewTaxYear(2025).APIFormat())
	assert.Equal(t, "1999/00", NewTaxYear(1999).Label())
	assert.Equal(t, "2024/25", NewTaxYear(2025).Previous().String())
}

func TestParseTaxYear(t *testing.T) {
	tests := []struct {
		input    string
		expected int
		wantErr  bool
	}{
		{"2025/26", 2025, false},
		{"2025-26", 2025, false},
		{" 2024 ", 2024, false},
		{"2025/27", 0, true},
		{"25/26", 0, true},
		{"abcd", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ty, err := ParseTaxYear(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ty.StartYear)
		})
	}
}
