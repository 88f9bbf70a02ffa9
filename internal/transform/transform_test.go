package transform

import (
	"errors"
	"testing"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseScenario() Scenario {
	return Scenario{
		Name:      "base",
		TaxYear:   domain.NewTaxYear(2025),
		NetProfit: decimal.NewFromInt(40000),
	}
}

func TestApplyTransforms(t *testing.T) {
	base := baseScenario()

	got, err := ApplyTransforms(base, []ScenarioTransform{
		&ShiftTaxYear{Years: -1},
		&ScaleProfit{Percent: decimal.NewFromInt(10)},
		&AdjustProfit{Amount: decimal.NewFromInt(-500)},
		&SetVoluntaryClass2{Enabled: true},
		&SetTaxDeducted{Amount: decimal.NewFromInt(250)},
	})
	require.NoError(t, err)

	assert.Equal(t, 2024, got.TaxYear.StartYear)
	assert.Equal(t, "43500.00", got.NetProfit.StringFixed(2))
	assert.True(t, got.Options.VoluntaryClass2)
	assert.Equal(t, "250", got.Options.TaxDeductedAtSource.String())

	// The base is a value and is never modified.
	assert.Equal(t, 2025, base.TaxYear.StartYear)
	assert.Equal(t, "40000", base.NetProfit.String())
	assert.False(t, base.Options.VoluntaryClass2)
}

func TestApplyTransforms_NoTransforms(t *testing.T) {
	base := baseScenario()
	got, err := ApplyTransforms(base, nil)
	require.NoError(t, err)
	assert.Equal(t, base, got)
}

func TestApplyTransforms_Errors(t *testing.T) {
	tests := []struct {
		name       string
		base       Scenario
		transforms []ScenarioTransform
		wantErr    string
	}{
		{
			name:    "missing tax year",
			base:    Scenario{NetProfit: decimal.NewFromInt(1)},
			wantErr: "no tax year",
		},
		{
			name: "negative deduction on base",
			base: Scenario{
				TaxYear: domain.NewTaxYear(2025),
				Options: calculation.Options{TaxDeductedAtSource: decimal.NewFromInt(-1)},
			},
			wantErr: "cannot be negative",
		},
		{
			name:       "nil transform",
			base:       baseScenario(),
			transforms: []ScenarioTransform{nil},
			wantErr:    "index 0 is nil",
		},
		{
			name:       "zero year shift",
			base:       baseScenario(),
			transforms: []ScenarioTransform{&ShiftTaxYear{}},
			wantErr:    "shift_tax_year validation failed",
		},
		{
			name:       "zero profit adjustment",
			base:       baseScenario(),
			transforms: []ScenarioTransform{&AdjustProfit{}},
			wantErr:    "adjust_profit validation failed",
		},
		{
			name:       "scale to nothing",
			base:       baseScenario(),
			transforms: []ScenarioTransform{&ScaleProfit{Percent: decimal.NewFromInt(-100)}},
			wantErr:    "greater than -100",
		},
		{
			name:       "negative deduction",
			base:       baseScenario(),
			transforms: []ScenarioTransform{&SetTaxDeducted{Amount: decimal.NewFromInt(-5)}},
			wantErr:    "set_tax_deducted validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyTransforms(tt.base, tt.transforms)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTransformError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &TransformError{TransformName: "x", Operation: "apply", Reason: "failed", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "transform x (apply): failed: boom", err.Error())
}

func TestDescriptions(t *testing.T) {
	tests := []struct {
		transform ScenarioTransform
		want      string
	}{
		{&ShiftTaxYear{Years: -1}, "Move back 1 tax year(s)"},
		{&ShiftTaxYear{Years: 2}, "Move forward 2 tax year(s)"},
		{&AdjustProfit{Amount: decimal.NewFromInt(-1000)}, "Reduce net profit by 1000.00"},
		{&AdjustProfit{Amount: decimal.NewFromInt(250)}, "Increase net profit by 250.00"},
		{&ScaleProfit{Percent: decimal.NewFromInt(10)}, "Change net profit by 10%"},
		{&SetVoluntaryClass2{Enabled: true}, "Pay voluntary Class 2 NI"},
		{&SetTaxDeducted{Amount: decimal.NewFromInt(800)}, "Tax deducted at source of 800.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.transform.Description())
	}
}

func TestTemplateRegistry(t *testing.T) {
	registry := NewTemplateRegistry()
	registry.Register(Template{Name: "Test_Template", Description: "A test template"})

	got, ok := registry.Get("test_template")
	require.True(t, ok)
	assert.Equal(t, "A test template", got.Description)

	_, ok = registry.Get("TEST_TEMPLATE")
	assert.True(t, ok, "lookup is case-insensitive")

	_, ok = registry.Get("nonexistent")
	assert.False(t, ok)
}

func TestCreateBuiltInTemplates(t *testing.T) {
	registry := CreateBuiltInTemplates()
	assert.Equal(t, []string{
		"extra_1k_expenses",
		"next_year",
		"previous_year",
		"profit_down_10pct",
		"profit_up_10pct",
		"voluntary_class2",
	}, registry.List())

	tests := []struct {
		template   string
		wantYear   int
		wantProfit string
		wantVol    bool
	}{
		{"voluntary_class2", 2025, "40000.00", true},
		{"previous_year", 2024, "40000.00", false},
		{"next_year", 2026, "40000.00", false},
		{"profit_up_10pct", 2025, "44000.00", false},
		{"profit_down_10pct", 2025, "36000.00", false},
		{"extra_1k_expenses", 2025, "39000.00", false},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			tmpl, ok := registry.Get(tt.template)
			require.True(t, ok)

			got, err := tmpl.Apply(baseScenario())
			require.NoError(t, err)
			assert.Equal(t, tt.template, got.Name)
			assert.Equal(t, tt.wantYear, got.TaxYear.StartYear)
			assert.Equal(t, tt.wantProfit, got.NetProfit.StringFixed(2))
			assert.Equal(t, tt.wantVol, got.Options.VoluntaryClass2)
		})
	}
}

func TestParseTemplateList(t *testing.T) {
	assert.Equal(t, []string{"previous_year", "voluntary_class2"}, ParseTemplateList(" previous_year, ,voluntary_class2,"))
	assert.Empty(t, ParseTemplateList(""))
}

func TestGetTemplateHelp(t *testing.T) {
	help := GetTemplateHelp(CreateBuiltInTemplates())
	assert.Contains(t, help, "Available templates:")
	assert.Contains(t, help, "  previous_year       Same profit in the previous tax year\n")
}
