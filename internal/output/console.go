package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rgehrsitz/satax/internal/domain"
)

// ConsoleFormatter renders the full liability breakdown.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(r *domain.TaxLiabilityResult) ([]byte, error) {
	var buf bytes.Buffer
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(&buf, rule)
	fmt.Fprintf(&buf, "SELF ASSESSMENT TAX CALCULATION %s\n", r.TaxYear.Label())
	fmt.Fprintln(&buf, rule)
	fmt.Fprintf(&buf, "Net profit:               %s\n", FormatCurrency(r.NetProfit))
	if r.NetProfit.IsNegative() {
		fmt.Fprintln(&buf, "(loss year: no tax or National Insurance is due)")
	}
	fmt.Fprintln(&buf)

	it := r.IncomeTax
	fmt.Fprintln(&buf, "INCOME TAX")
	fmt.Fprintln(&buf, strings.Repeat("-", 40))
	fmt.Fprintf(&buf, "  Personal allowance:     %s\n", FormatCurrency(it.PersonalAllowance))
	fmt.Fprintf(&buf, "  Taxable income:         %s\n", FormatCurrency(it.TaxableIncome))
	fmt.Fprintf(&buf, "  Basic rate:             %s on %s\n", FormatCurrency(it.BasicRateTax), FormatCurrency(it.BasicRateAmount))
	fmt.Fprintf(&buf, "  Higher rate:            %s on %s\n", FormatCurrency(it.HigherRateTax), FormatCurrency(it.HigherRateAmount))
	fmt.Fprintf(&buf, "  Additional rate:        %s on %s\n", FormatCurrency(it.AdditionalRateTax), FormatCurrency(it.AdditionalRateAmount))
	fmt.Fprintf(&buf, "  Total income tax:       %s\n", FormatCurrency(r.TotalIncomeTax))
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "NATIONAL INSURANCE")
	fmt.Fprintln(&buf, strings.Repeat("-", 40))
	fmt.Fprintf(&buf, "  Class 4 main rate:      %s on %s\n", FormatCurrency(r.Class4.MainRateNI), FormatCurrency(r.Class4.MainRateAmount))
	fmt.Fprintf(&buf, "  Class 4 additional:     %s on %s\n", FormatCurrency(r.Class4.AdditionalRateNI), FormatCurrency(r.Class4.AdditionalRateAmount))
	fmt.Fprintf(&buf, "  Class 2:                %s (%s, %d weeks at %s)\n",
		FormatCurrency(r.NIClass2), Class2Status(r.Class2), r.Class2.WeeksLiable, FormatCurrency(r.Class2.WeeklyRate))
	if r.Class2.Voluntary && !r.Class2.OptedIn {
		fmt.Fprintf(&buf, "  (voluntary Class 2 of %s would protect State Pension entitlement)\n", FormatCurrency(r.Class2.Amount))
	}
	fmt.Fprintf(&buf, "  Total NI:               %s\n", FormatCurrency(r.TotalNI))
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, rule)
	fmt.Fprintf(&buf, "TOTAL LIABILITY:          %s\n", FormatCurrency(r.TotalLiability))
	if r.TaxDeductedAtSource.IsPositive() {
		fmt.Fprintf(&buf, "Tax deducted at source:   %s\n", FormatCurrency(r.TaxDeductedAtSource))
		fmt.Fprintf(&buf, "Balance due:              %s\n", FormatCurrency(r.BalanceDue()))
	}
	fmt.Fprintf(&buf, "Payment deadline:         %s\n", r.TaxYear.PaymentDeadline().Format("2 January 2006"))
	fmt.Fprintln(&buf, rule)

	poa := r.PaymentOnAccount
	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, "PAYMENTS ON ACCOUNT")
	fmt.Fprintf(&buf, "  Required:               %s\n", yesNo(poa.Required))
	if poa.Required {
		fmt.Fprintf(&buf, "  First instalment:       %s due %s\n", FormatCurrency(poa.InstalmentAmount), poa.FirstDueDate.Format("2 January 2006"))
		fmt.Fprintf(&buf, "  Second instalment:      %s due %s\n", FormatCurrency(poa.InstalmentAmount), poa.SecondDueDate.Format("2 January 2006"))
	}
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, "NOTES:")
	for _, n := range DefaultNotes {
		fmt.Fprintf(&buf, "• %s\n", n)
	}
	return buf.Bytes(), nil
}

// SummaryFormatter renders a few lines suitable for a terminal status line.
type SummaryFormatter struct{}

func (s SummaryFormatter) Name() string { return "console-lite" }

func (s SummaryFormatter) Format(r *domain.TaxLiabilityResult) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "TAX YEAR %s\n", r.TaxYear.Label())
	fmt.Fprintf(&buf, "Net profit: %s\n", FormatCurrency(r.NetProfit))
	fmt.Fprintf(&buf, "Income tax: %s | Class 2: %s | Class 4: %s\n",
		FormatCurrency(r.TotalIncomeTax), FormatCurrency(r.NIClass2), FormatCurrency(r.NIClass4))
	fmt.Fprintf(&buf, "Total liability: %s\n", FormatCurrency(r.TotalLiability))
	if r.PaymentOnAccount.Required {
		fmt.Fprintf(&buf, "Payments on account: 2 x %s\n", FormatCurrency(r.PaymentOnAccount.InstalmentAmount))
	}
	return buf.Bytes(), nil
}
