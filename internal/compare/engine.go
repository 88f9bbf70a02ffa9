package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/transform"
	"github.com/shopspring/decimal"
)

// Calculator prices a net profit for a tax year.
type Calculator interface {
	CalculateWithOptions(netProfit decimal.Decimal, taxYearStartYear int, opts calculation.Options) (*domain.TaxLiabilityResult, error)
}

// CompareEngine orchestrates scenario comparison
type CompareEngine struct {
	Calculator        Calculator
	MetricsCalculator *MetricsCalculator
	TemplateRegistry  *transform.TemplateRegistry
}

// NewCompareEngine creates a comparison engine with the built-in templates.
func NewCompareEngine(calc Calculator) *CompareEngine {
	return &CompareEngine{
		Calculator:        calc,
		MetricsCalculator: NewMetricsCalculator(),
		TemplateRegistry:  transform.CreateBuiltInTemplates(),
	}
}

// Compare prices base and one alternative per named template.
func (ce *CompareEngine) Compare(ctx context.Context, base transform.Scenario, templates []string) (*ComparisonSet, error) {
	alternatives := make([]transform.Scenario, 0, len(templates))
	descriptions := make(map[string]string, len(templates))
	for _, name := range templates {
		tmpl, ok := ce.TemplateRegistry.Get(name)
		if !ok {
			return nil, fmt.Errorf("template %s not found", name)
		}
		alt, err := tmpl.Apply(base)
		if err != nil {
			return nil, fmt.Errorf("failed to apply template %s: %w", name, err)
		}
		alternatives = append(alternatives, alt)
		descriptions[alt.Name] = tmpl.Description
	}

	compSet, err := ce.CompareScenarios(ctx, base, alternatives)
	if err != nil {
		return nil, err
	}
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		alt.Description = descriptions[alt.ScenarioName]
	}
	return compSet, nil
}

// CompareScenarios prices base and explicit alternatives.
func (ce *CompareEngine) CompareScenarios(ctx context.Context, base transform.Scenario, alternatives []transform.Scenario) (*ComparisonSet, error) {
	if base.Name == "" {
		base.Name = "base"
	}
	baseResult, err := ce.price(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base scenario: %w", err)
	}

	results := make([]ComparisonResult, 0, len(alternatives))
	for _, alt := range alternatives {
		r, err := ce.price(ctx, alt)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate scenario %s: %w", alt.Name, err)
		}
		results = append(results, ce.MetricsCalculator.CalculateComparison(r, baseResult))
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   base.Name,
		BaseResult:         &baseResult,
		AlternativeResults: results,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)
	return compSet, nil
}

func (ce *CompareEngine) price(ctx context.Context, s transform.Scenario) (ComparisonResult, error) {
	if err := ctx.Err(); err != nil {
		return ComparisonResult{}, err
	}
	if err := s.Validate(); err != nil {
		return ComparisonResult{}, err
	}
	r, err := ce.Calculator.CalculateWithOptions(s.NetProfit, s.TaxYear.StartYear, s.Options)
	if err != nil {
		return ComparisonResult{}, err
	}
	return ce.MetricsCalculator.CalculateMetrics(s, r), nil
}
