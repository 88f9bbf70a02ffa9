package compare

import (
	"encoding/csv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"TaxYear",
		"NetProfit",
		"TotalLiability",
		"TakeHome",
		"EffectiveRate",
		"LiabilityDiffFromBase",
		"TakeHomeDiffFromBase",
		"MarginalRate",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if compSet.BaseResult != nil {
		if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
			return "", err
		}
	}
	for i := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&compSet.AlternativeResults[i], "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	marginal := ""
	if result.MarginalRate != nil {
		marginal = result.MarginalRate.StringFixed(4)
	}
	return []string{
		result.ScenarioName,
		scenarioType,
		result.TaxYear,
		result.NetProfit.StringFixed(2),
		result.TotalLiability.StringFixed(2),
		result.TakeHome.StringFixed(2),
		result.EffectiveRate.StringFixed(2),
		result.LiabilityDiffFromBase.StringFixed(2),
		result.TakeHomeDiffFromBase.StringFixed(2),
		marginal,
	}
}
