package output

import (
	"strings"

	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultNotes lists the assumptions behind every calculation.
var DefaultNotes = []string{
	"Rates for England, Wales and Northern Ireland; Scottish income tax bands are not applied",
	"Self-employment profit is the only income; no savings, dividends or employment income",
	"Payments on account are estimated from this year's liability",
	"Figures are rounded to the penny for display only",
}

// FormatCurrency formats an amount as pounds and pence with thousands separators.
func FormatCurrency(amount decimal.Decimal) string {
	s := domain.Round2(amount).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, pence, _ := strings.Cut(s, ".")
	return sign + "£" + groupThousands(whole) + "." + pence
}

// FormatPercentage formats a rate such as 0.2 as "20%".
func FormatPercentage(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).String() + "%"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// Class2Status describes the Class 2 classification in words.
func Class2Status(c domain.Class2NICalculationResult) string {
	switch {
	case c.Mandatory:
		return "mandatory"
	case c.Voluntary && c.OptedIn:
		return "voluntary (opted in)"
	case c.Voluntary:
		return "voluntary (not paid)"
	default:
		return "not applicable"
	}
}
