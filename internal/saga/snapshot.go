package saga

import (
	"time"

	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

// Snapshot is the complete persisted view of one submission. Resuming from a
// Snapshot restores exactly this state.
type Snapshot struct {
	ID      string         `json:"id"`
	TaxYear domain.TaxYear `json:"tax_year"`
	State   State          `json:"state"`
	Step    Step           `json:"step"`

	Summary             domain.FinancialSummary `json:"summary"`
	TaxDeductedAtSource decimal.Decimal         `json:"tax_deducted_at_source"`
	VoluntaryClass2     bool                    `json:"voluntary_class2,omitempty"`

	Result      *domain.TaxLiabilityResult         `json:"result,omitempty"`
	Confirmed   []declaration.Key                  `json:"confirmed,omitempty"`
	Declaration *declaration.SubmissionDeclaration `json:"declaration,omitempty"`

	Reference string `json:"reference,omitempty"`
	Failure   string `json:"failure,omitempty"`
	Attempt   int    `json:"attempt"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the snapshot describes a started submission.
func (s Snapshot) Active() bool {
	return s.ID != "" && s.State != StateNone
}

// CanSubmit mirrors Machine.CanSubmit for a stored submission.
func (s Snapshot) CanSubmit() bool {
	return s.State == StateCalculated && len(s.Confirmed) == declaration.Count()
}
