package breakeven

import (
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/transform"
	"github.com/shopspring/decimal"
)

// OptimizationTarget defines which figure the solver matches
type OptimizationTarget string

const (
	// TargetTakeHome finds the profit that leaves a given amount after tax and NI.
	TargetTakeHome OptimizationTarget = "take_home"
	// TargetLiability finds the profit at which the total liability reaches a given amount.
	TargetLiability OptimizationTarget = "liability"
)

// ParseTarget accepts the target names used on the command line.
func ParseTarget(s string) (OptimizationTarget, error) {
	switch OptimizationTarget(s) {
	case TargetTakeHome, TargetLiability:
		return OptimizationTarget(s), nil
	case "takehome", "take-home", "net":
		return TargetTakeHome, nil
	case "tax":
		return TargetLiability, nil
	}
	return "", &BreakEvenError{Operation: "parse_target", Message: "unknown target " + s}
}

// Constraints bound the profit search
type Constraints struct {
	MinProfit *decimal.Decimal `json:"min_profit,omitempty"`
	MaxProfit *decimal.Decimal `json:"max_profit,omitempty"`
}

// DefaultConstraints searches profits from zero to one million.
func DefaultConstraints() Constraints {
	minProfit := decimal.Zero
	maxProfit := decimal.NewFromInt(1_000_000)
	return Constraints{MinProfit: &minProfit, MaxProfit: &maxProfit}
}

// OptimizationRequest defines the parameters for a solver run. The base
// scenario supplies the tax year and options; its profit is ignored.
type OptimizationRequest struct {
	Base          transform.Scenario
	Target        OptimizationTarget
	Goal          decimal.Decimal
	Constraints   Constraints
	MaxIterations int             // Maximum calculator evaluations
	Tolerance     decimal.Decimal // Width of the final profit bracket
}

// OptimizationResult contains the results of a solver run
type OptimizationResult struct {
	Request         OptimizationRequest `json:"-"`
	Target          OptimizationTarget  `json:"target"`
	Goal            decimal.Decimal     `json:"goal"`
	TaxYear         string              `json:"tax_year"`
	Success         bool                `json:"success"`
	Iterations      int                 `json:"iterations"`
	ConvergenceInfo string              `json:"convergence_info"`

	// Figures at the required profit
	RequiredProfit decimal.Decimal            `json:"required_profit"`
	Achieved       decimal.Decimal            `json:"achieved"`
	TotalLiability decimal.Decimal            `json:"total_liability"`
	TakeHome       decimal.Decimal            `json:"take_home"`
	Result         *domain.TaxLiabilityResult `json:"-"`
}

// SweepPoint is the liability at one profit level.
type SweepPoint struct {
	Profit         decimal.Decimal `json:"profit"`
	TotalLiability decimal.Decimal `json:"total_liability"`
	TakeHome       decimal.Decimal `json:"take_home"`
	EffectiveRate  decimal.Decimal `json:"effective_rate"` // percent of profit
	// MarginalRate is the liability change per pound since the previous
	// point; nil for the first point.
	MarginalRate *decimal.Decimal `json:"marginal_rate,omitempty"`
}

// SolverOptions configures the solver algorithm
type SolverOptions struct {
	Tolerance     decimal.Decimal // Convergence tolerance
	MaxIterations int             // Maximum iterations
	MaxSweepSteps int             // Largest number of points a sweep may produce
}

// DefaultSolverOptions returns default solver configuration
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		Tolerance:     decimal.NewFromFloat(0.01), // one penny
		MaxIterations: 64,
		MaxSweepSteps: 1000,
	}
}

// Validate checks if constraints are internally consistent
func (c *Constraints) Validate() error {
	if c.MinProfit != nil && c.MinProfit.IsNegative() {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "min_profit cannot be negative",
		}
	}
	if c.MinProfit != nil && c.MaxProfit != nil && c.MinProfit.GreaterThan(*c.MaxProfit) {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "min_profit cannot be greater than max_profit",
		}
	}
	return nil
}

// BreakEvenError represents errors from break-even solver
type BreakEvenError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *BreakEvenError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *BreakEvenError) Unwrap() error {
	return e.Cause
}
