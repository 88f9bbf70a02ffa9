package compare

import (
	"fmt"

	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/output"
	"github.com/rgehrsitz/satax/internal/transform"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComparisonResult represents a single priced scenario with its metrics
type ComparisonResult struct {
	ScenarioName string                     `json:"scenarioName"`
	Description  string                     `json:"description,omitempty"`
	TaxYear      string                     `json:"taxYear"`
	Result       *domain.TaxLiabilityResult `json:"-"`

	// Key Metrics
	NetProfit      decimal.Decimal `json:"netProfit"`
	TotalLiability decimal.Decimal `json:"totalLiability"`
	TakeHome       decimal.Decimal `json:"takeHome"`
	EffectiveRate  decimal.Decimal `json:"effectiveRate"` // percent of profit
	PaymentsOnAcct decimal.Decimal `json:"paymentsOnAccount"`

	// Comparison to Base
	ProfitDiffFromBase    decimal.Decimal `json:"profitDiffFromBase"`
	LiabilityDiffFromBase decimal.Decimal `json:"liabilityDiffFromBase"`
	LiabilityPctFromBase  decimal.Decimal `json:"liabilityPctFromBase"`
	TakeHomeDiffFromBase  decimal.Decimal `json:"takeHomeDiffFromBase"`
	// MarginalRate is the liability change per pound of profit change, set
	// only when the profit differs from the base.
	MarginalRate *decimal.Decimal `json:"marginalRate,omitempty"`
}

// ComparisonSet represents a collection of scenario comparisons
type ComparisonSet struct {
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
}

// MetricsCalculator extracts key metrics from liability results
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics computes the headline figures for a priced scenario.
func (mc *MetricsCalculator) CalculateMetrics(s transform.Scenario, r *domain.TaxLiabilityResult) ComparisonResult {
	result := ComparisonResult{
		ScenarioName:   s.Name,
		TaxYear:        r.TaxYear.Label(),
		Result:         r,
		NetProfit:      r.NetProfit,
		TotalLiability: r.TotalLiability,
		TakeHome:       r.NetProfit.Sub(r.TotalLiability),
	}
	if r.NetProfit.IsPositive() {
		result.EffectiveRate = r.TotalLiability.Div(r.NetProfit).Mul(hundred).Round(2)
	}
	if r.PaymentOnAccount.Required {
		result.PaymentsOnAcct = r.PaymentOnAccount.Total()
	}
	return result
}

// CalculateComparison computes deltas between a scenario and the base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.ProfitDiffFromBase = scenario.NetProfit.Sub(base.NetProfit)
	scenario.LiabilityDiffFromBase = scenario.TotalLiability.Sub(base.TotalLiability)
	scenario.TakeHomeDiffFromBase = scenario.TakeHome.Sub(base.TakeHome)

	if !base.TotalLiability.IsZero() {
		scenario.LiabilityPctFromBase = scenario.LiabilityDiffFromBase.
			Div(base.TotalLiability).
			Mul(hundred)
	}
	if !scenario.ProfitDiffFromBase.IsZero() {
		rate := scenario.LiabilityDiffFromBase.Div(scenario.ProfitDiffFromBase).Round(4)
		scenario.MarginalRate = &rate
	}
	return scenario
}

// GenerateRecommendations points out the cheapest scenario, the one that
// keeps the most money, and what each pound of profit change costs.
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}

	lowest := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.TotalLiability.LessThan(lowest.TotalLiability) {
			lowest = alt
		}
	}
	if lowest != compSet.BaseResult {
		saving := compSet.BaseResult.TotalLiability.Sub(lowest.TotalLiability)
		recommendations = append(recommendations,
			"Lowest liability: "+lowest.ScenarioName+" is "+output.FormatCurrency(saving)+
				" less than "+compSet.BaseScenarioName)
	}

	best := compSet.BaseResult
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.TakeHome.GreaterThan(best.TakeHome) {
			best = alt
		}
	}
	if best != compSet.BaseResult {
		gain := best.TakeHome.Sub(compSet.BaseResult.TakeHome)
		recommendations = append(recommendations,
			"Highest take-home: "+best.ScenarioName+" keeps "+output.FormatCurrency(gain)+
				" more than "+compSet.BaseScenarioName)
	}

	for _, alt := range compSet.AlternativeResults {
		if alt.MarginalRate == nil {
			continue
		}
		recommendations = append(recommendations,
			fmt.Sprintf("%s: each £1 of profit change moves the liability by £%s",
				alt.ScenarioName, alt.MarginalRate.StringFixed(2)))
	}

	return recommendations
}
