package breakeven

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rgehrsitz/satax/internal/output"
	"github.com/shopspring/decimal"
)

// TableFormatter formats solver results as console tables
type TableFormatter struct{}

// Format generates a formatted table for an optimization result
func (tf *TableFormatter) Format(result *OptimizationResult) string {
	var sb strings.Builder

	sb.WriteString("BREAK-EVEN RESULT\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString(fmt.Sprintf("Tax Year:        %s\n", result.TaxYear))
	sb.WriteString(fmt.Sprintf("Target:          %s of %s\n", tf.targetLabel(result.Target), output.FormatCurrency(result.Goal)))
	sb.WriteString(fmt.Sprintf("Status:          %s\n", tf.formatStatus(result.Success)))
	sb.WriteString(fmt.Sprintf("Iterations:      %d\n", result.Iterations))
	if result.ConvergenceInfo != "" {
		sb.WriteString(fmt.Sprintf("Convergence:     %s\n", result.ConvergenceInfo))
	}
	sb.WriteString("\n")

	sb.WriteString("REQUIRED PROFIT\n")
	sb.WriteString(strings.Repeat("-", 60) + "\n")
	sb.WriteString(fmt.Sprintf("Net Profit:      %s\n", output.FormatCurrency(result.RequiredProfit)))
	sb.WriteString(fmt.Sprintf("Total Liability: %s\n", output.FormatCurrency(result.TotalLiability)))
	sb.WriteString(fmt.Sprintf("Take-Home:       %s\n", output.FormatCurrency(result.TakeHome)))
	if diff := result.Achieved.Sub(result.Goal); !diff.IsZero() {
		sb.WriteString(fmt.Sprintf("Over Target By:  %s\n", output.FormatCurrency(diff)))
	}
	sb.WriteString("\n")

	return sb.String()
}

// FormatSweep renders liability at each profit level with its marginal rate.
func (tf *TableFormatter) FormatSweep(points []SweepPoint) string {
	var sb strings.Builder

	sb.WriteString("LIABILITY BY PROFIT\n")
	sb.WriteString(strings.Repeat("=", 72) + "\n")
	sb.WriteString(fmt.Sprintf("%15s %15s %15s %10s %10s\n", "Profit", "Liability", "Take-Home", "Effective", "Marginal"))
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for _, p := range points {
		marginal := "-"
		if p.MarginalRate != nil {
			marginal = tf.percent(*p.MarginalRate)
		}
		sb.WriteString(fmt.Sprintf("%15s %15s %15s %10s %10s\n",
			output.FormatCurrency(p.Profit),
			output.FormatCurrency(p.TotalLiability),
			output.FormatCurrency(p.TakeHome),
			p.EffectiveRate.StringFixed(1)+"%",
			marginal))
	}
	sb.WriteString(strings.Repeat("=", 72) + "\n")
	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output
func (jf *JSONFormatter) Format(result *OptimizationResult) (string, error) {
	return jf.marshal(result)
}

// FormatSweep generates JSON output for a sweep
func (jf *JSONFormatter) FormatSweep(points []SweepPoint) (string, error) {
	return jf.marshal(points)
}

func (jf *JSONFormatter) marshal(v any) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

func (tf *TableFormatter) formatStatus(success bool) string {
	if success {
		return "✓ Converged"
	}
	return "⚠ Did not converge"
}

func (tf *TableFormatter) targetLabel(t OptimizationTarget) string {
	switch t {
	case TargetTakeHome:
		return "Take-home"
	case TargetLiability:
		return "Total liability"
	}
	return string(t)
}

func (tf *TableFormatter) percent(rate decimal.Decimal) string {
	return rate.Mul(hundred).StringFixed(1) + "%"
}
