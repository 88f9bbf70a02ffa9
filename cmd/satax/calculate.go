package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/output"
)

// figureFlags are the financial inputs shared by calculate and submit.
type figureFlags struct {
	year            string
	profit          string
	income          string
	expenses        string
	deducted        string
	voluntaryClass2 bool
}

func (f *figureFlags) register(cmd *cobra.Command, withProfit bool) {
	cmd.Flags().StringVarP(&f.year, "year", "y", "", "Tax year, e.g. 2025-26 (default: the last completed tax year)")
	if withProfit {
		cmd.Flags().StringVar(&f.profit, "profit", "", "Net profit; use instead of --income and --expenses")
	}
	cmd.Flags().StringVar(&f.income, "income", "", "Self-employment turnover")
	cmd.Flags().StringVar(&f.expenses, "expenses", "", "Allowable expenses")
	cmd.Flags().StringVar(&f.deducted, "deducted", "0", "Tax already deducted at source")
	cmd.Flags().BoolVar(&f.voluntaryClass2, "voluntary-class2", false, "Pay voluntary Class 2 NI when profits are below the Small Profits Threshold")
}

func (f *figureFlags) taxYear() (domain.TaxYear, error) {
	if f.year == "" {
		return domain.CurrentTaxYear(time.Now).Previous(), nil
	}
	return domain.ParseTaxYear(f.year)
}

func (f *figureFlags) options() (calculation.Options, error) {
	deducted, err := parseMoney("deducted", f.deducted)
	if err != nil {
		return calculation.Options{}, err
	}
	if deducted.IsNegative() {
		return calculation.Options{}, errors.New("--deducted cannot be negative")
	}
	return calculation.Options{TaxDeductedAtSource: deducted, VoluntaryClass2: f.voluntaryClass2}, nil
}

func (f *figureFlags) summary() (domain.FinancialSummary, error) {
	if f.income == "" || f.expenses == "" {
		return domain.FinancialSummary{}, errors.New("--income and --expenses are required")
	}
	income, err := parseMoney("income", f.income)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	expenses, err := parseMoney("expenses", f.expenses)
	if err != nil {
		return domain.FinancialSummary{}, err
	}
	if income.IsNegative() || expenses.IsNegative() {
		return domain.FinancialSummary{}, errors.New("--income and --expenses cannot be negative")
	}
	return domain.NewFinancialSummary(income, expenses), nil
}

// netProfit takes --profit when given, otherwise income less expenses.
func (f *figureFlags) netProfit() (decimal.Decimal, error) {
	if f.profit != "" {
		if f.income != "" || f.expenses != "" {
			return decimal.Zero, errors.New("use either --profit or --income and --expenses, not both")
		}
		return parseMoney("profit", f.profit)
	}
	summary, err := f.summary()
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w (or give --profit)", err)
	}
	return summary.NetProfit(), nil
}

func parseMoney(name, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return d, nil
}

func calculateCmd(opts *globalOptions) *cobra.Command {
	var (
		figures    figureFlags
		format     string
		outputFile bool
	)
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate income tax and National Insurance for a tax year",
		Example: `  satax calculate --profit 40000 --year 2025-26
  satax calculate --income 52000 --expenses 12000 --format json
  satax calculate --profit 5000 --voluntary-class2 --format html --output-file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter, err := output.GetFormatterByName(format)
			if err != nil {
				return err
			}
			taxYear, err := figures.taxYear()
			if err != nil {
				return err
			}
			profit, err := figures.netProfit()
			if err != nil {
				return err
			}
			calcOpts, err := figures.options()
			if err != nil {
				return err
			}

			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.calculator().CalculateWithOptions(profit, taxYear.StartYear, calcOpts)
			if err != nil {
				return err
			}
			a.logger.Debugf("calculated %s liability %s for profit %s", taxYear, result.TotalLiability, profit)

			if outputFile {
				name, err := output.WriteFormatted(formatter, result, extensionFor(formatter.Name()))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", name)
				return nil
			}
			data, err := formatter.Format(result)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	figures.register(cmd, true)
	cmd.Flags().StringVarP(&format, "format", "f", "console", "Output format ("+strings.Join(output.FormatterNames(), ", ")+")")
	cmd.Flags().BoolVar(&outputFile, "output-file", false, "Write the report to a timestamped file instead of stdout")
	return cmd
}

func extensionFor(format string) string {
	switch format {
	case "json", "csv", "html":
		return format
	default:
		return "txt"
	}
}

func ratesCmd(opts *globalOptions) *cobra.Command {
	var year string
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Show the tax and National Insurance rates for a tax year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			if year == "" {
				meta := a.rates.Metadata()
				fmt.Fprintf(out, "%s (updated %s)\n", meta.Description, meta.LastUpdated)
				fmt.Fprintln(out, "Configured tax years:")
				for _, y := range a.rates.Years() {
					fmt.Fprintf(out, "  %s\n", domain.NewTaxYear(y).Label())
				}
				return nil
			}

			taxYear, err := domain.ParseTaxYear(year)
			if err != nil {
				return err
			}
			rs, err := a.rates.GetRates(taxYear.StartYear)
			if err != nil {
				return err
			}
			writeRates(cmd, rs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&year, "year", "y", "", "Tax year to show, e.g. 2025-26 (default: list configured years)")
	return cmd
}

func writeRates(cmd *cobra.Command, rs domain.RateSet) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "Tax year\t%s\n", rs.TaxYear.Label())
	fmt.Fprintf(tw, "Personal allowance\t%s\n", output.FormatCurrency(rs.PersonalAllowance))
	if rs.AllowanceTaperThreshold.IsPositive() {
		fmt.Fprintf(tw, "Allowance taper\t%s lost per £1 over %s\n",
			output.FormatCurrency(rs.AllowanceTaperRate), output.FormatCurrency(rs.AllowanceTaperThreshold))
	}
	fmt.Fprintf(tw, "Basic rate\t%s up to %s taxable\n", output.FormatPercentage(rs.BasicRate), output.FormatCurrency(rs.BasicRateLimit))
	fmt.Fprintf(tw, "Higher rate\t%s up to %s taxable\n", output.FormatPercentage(rs.HigherRate), output.FormatCurrency(rs.HigherRateLimit))
	fmt.Fprintf(tw, "Additional rate\t%s\n", output.FormatPercentage(rs.AdditionalRate))
	fmt.Fprintf(tw, "Class 4 main rate\t%s between %s and %s\n", output.FormatPercentage(rs.Class4.MainRate),
		output.FormatCurrency(rs.Class4.LowerProfitsLimit), output.FormatCurrency(rs.Class4.UpperProfitsLimit))
	fmt.Fprintf(tw, "Class 4 additional rate\t%s\n", output.FormatPercentage(rs.Class4.AdditionalRate))
	fmt.Fprintf(tw, "Class 2 weekly rate\t%s\n", output.FormatCurrency(rs.Class2.WeeklyRate))
	fmt.Fprintf(tw, "Small Profits Threshold\t%s\n", output.FormatCurrency(rs.Class2.SmallProfitsThreshold))
	fmt.Fprintf(tw, "Payment on account threshold\t%s\n", output.FormatCurrency(rs.PaymentOnAccount.Threshold))
}

func declarationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "declaration",
		Short: "Show the statements confirmed before submitting",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for i, k := range declaration.Keys() {
				fmt.Fprintf(out, "%d. [%s]\n   %s\n", i+1, k, k.Text())
			}
		},
	}
}
