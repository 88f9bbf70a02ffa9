package output

import (
	"bytes"
	"encoding/csv"

	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

// CSVFormatter writes one line item per row.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(r *domain.TaxLiabilityResult) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	rows := [][]string{
		{"TaxYear", "Item", "Basis", "Amount"},
		line(r, "NetProfit", decimal.Zero, r.NetProfit),
		line(r, "PersonalAllowance", decimal.Zero, r.IncomeTax.PersonalAllowance),
		line(r, "TaxableIncome", decimal.Zero, r.IncomeTax.TaxableIncome),
		line(r, "BasicRateTax", r.IncomeTax.BasicRateAmount, r.IncomeTax.BasicRateTax),
		line(r, "HigherRateTax", r.IncomeTax.HigherRateAmount, r.IncomeTax.HigherRateTax),
		line(r, "AdditionalRateTax", r.IncomeTax.AdditionalRateAmount, r.IncomeTax.AdditionalRateTax),
		line(r, "IncomeTax", r.IncomeTax.TaxableIncome, r.TotalIncomeTax),
		line(r, "Class4Main", r.Class4.MainRateAmount, r.Class4.MainRateNI),
		line(r, "Class4Additional", r.Class4.AdditionalRateAmount, r.Class4.AdditionalRateNI),
		line(r, "Class2", decimal.Zero, r.NIClass2),
		line(r, "TotalNI", decimal.Zero, r.TotalNI),
		line(r, "TotalLiability", decimal.Zero, r.TotalLiability),
		line(r, "PaymentOnAccount", decimal.Zero, r.PaymentOnAccount.InstalmentAmount),
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func line(r *domain.TaxLiabilityResult, item string, basis, amount decimal.Decimal) []string {
	return []string{r.TaxYear.Label(), item, basis.StringFixed(2), amount.StringFixed(2)}
}
