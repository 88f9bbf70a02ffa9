package output

import (
	"encoding/json"

	"github.com/rgehrsitz/satax/internal/domain"
)

// JSONFormatter renders the result with exact decimal strings.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(r *domain.TaxLiabilityResult) ([]byte, error) {
	doc := struct {
		TaxYear string `json:"tax_year"`
		*domain.TaxLiabilityResult
		BalanceDue string `json:"balance_due"`
	}{r.TaxYear.Label(), r, r.BalanceDue().String()}
	return json.MarshalIndent(doc, "", "  ")
}
