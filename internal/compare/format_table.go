package compare

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/satax/internal/output"
	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing scenarios
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("SCENARIO COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Base Scenario: %s\n\n", compSet.BaseScenarioName))

	nameWidth := 22
	yearWidth := 8
	numWidth := 14

	sb.WriteString(fmt.Sprintf("%-*s %-*s %*s %*s %*s %*s\n",
		nameWidth, "Scenario",
		yearWidth, "Year",
		numWidth, "Net Profit",
		numWidth, "Liability",
		numWidth, "Take-Home",
		5, "Rate"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	if base := compSet.BaseResult; base != nil {
		sb.WriteString(tf.formatRow(base, nameWidth, yearWidth, numWidth, true))
	}

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for i := range compSet.AlternativeResults {
			sb.WriteString(tf.formatRow(&compSet.AlternativeResults[i], nameWidth, yearWidth, numWidth, false))
		}
	}
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\nCOMPARISON TO BASE\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")

		for _, alt := range compSet.AlternativeResults {
			title := alt.ScenarioName
			if alt.Description != "" {
				title += " (" + alt.Description + ")"
			}
			sb.WriteString(fmt.Sprintf("\n%s:\n", title))
			sb.WriteString(fmt.Sprintf("  Liability:  %s (%s%%)\n",
				tf.signed(alt.LiabilityDiffFromBase),
				alt.LiabilityPctFromBase.StringFixed(1)))
			sb.WriteString(fmt.Sprintf("  Take-home:  %s\n", tf.signed(alt.TakeHomeDiffFromBase)))
		}
		sb.WriteString("\n")
	}

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nRECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (tf *TableFormatter) formatRow(result *ComparisonResult, nameWidth, yearWidth, numWidth int, isBase bool) string {
	name := result.ScenarioName
	if isBase {
		name += " (base)"
	}
	return fmt.Sprintf("%-*s %-*s %*s %*s %*s %*s\n",
		nameWidth, tf.truncate(name, nameWidth),
		yearWidth, result.TaxYear,
		numWidth, output.FormatCurrency(result.NetProfit),
		numWidth, output.FormatCurrency(result.TotalLiability),
		numWidth, output.FormatCurrency(result.TakeHome),
		5, result.EffectiveRate.StringFixed(1)+"%")
}

// signed formats a delta with an explicit sign; zero has none.
func (tf *TableFormatter) signed(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+" + output.FormatCurrency(delta)
	}
	return output.FormatCurrency(delta)
}

// truncate truncates a string to maxLen runes
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// FormatCompact creates a compact single-line summary for each scenario
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s", compSet.BaseScenarioName))
	if compSet.BaseResult != nil {
		sb.WriteString(" " + output.FormatCurrency(compSet.BaseResult.TotalLiability))
	}

	for _, alt := range compSet.AlternativeResults {
		change := "="
		if !alt.LiabilityDiffFromBase.IsZero() {
			change = tf.signed(alt.LiabilityDiffFromBase)
		}
		sb.WriteString(fmt.Sprintf(" | %s: %s", alt.ScenarioName, change))
	}

	return sb.String()
}
