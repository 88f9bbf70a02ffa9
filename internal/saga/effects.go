package saga

import (
	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

// Effect is work the Machine asks its driver to perform outside the reducer.
// The result comes back as a CalculationDone or SubmissionDone.
type Effect interface {
	effect()
}

// CalculateEffect requests a liability calculation.
type CalculateEffect struct {
	SagaID    string
	Attempt   int
	TaxYear   domain.TaxYear
	NetProfit decimal.Decimal
	Options   calculation.Options
}

// SubmitEffect requests submission of a sealed declaration to HMRC.
type SubmitEffect struct {
	SagaID      string
	Attempt     int
	Declaration *declaration.SubmissionDeclaration
	Result      *domain.TaxLiabilityResult
}

func (CalculateEffect) effect() {}
func (SubmitEffect) effect()    {}

// CalculationDone completes a CalculateEffect.
type CalculationDone struct {
	SagaID  string
	Attempt int
	Result  *domain.TaxLiabilityResult
	Err     error
}

// SubmissionDone completes a SubmitEffect. Err is a transport or
// authentication failure; a rejection is an Outcome with Accepted false.
type SubmissionDone struct {
	SagaID  string
	Attempt int
	Outcome Outcome
	Err     error
}

// Outcome is HMRC's answer to a submission.
type Outcome struct {
	Accepted  bool   `json:"accepted"`
	Reference string `json:"reference,omitempty"`
	Message   string `json:"message,omitempty"`
}
