package breakeven

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/output"
	"github.com/shopspring/decimal"
)

var (
	penceScale = decimal.NewFromInt(100)
	hundred    = decimal.NewFromInt(100)
)

// Calculator prices a net profit for a tax year.
type Calculator interface {
	CalculateWithOptions(netProfit decimal.Decimal, taxYearStartYear int, opts calculation.Options) (*domain.TaxLiabilityResult, error)
}

// Solver answers "how much profit do I need" questions by searching the
// liability calculation.
type Solver struct {
	Calculator Calculator
	Options    SolverOptions
}

// NewSolver creates a new break-even solver
func NewSolver(calc Calculator, options SolverOptions) *Solver {
	return &Solver{
		Calculator: calc,
		Options:    options,
	}
}

// NewDefaultSolver creates a solver with default options
func NewDefaultSolver(calc Calculator) *Solver {
	return NewSolver(calc, DefaultSolverOptions())
}

// Optimize finds the smallest profit, to the nearest tolerance, at which
// the target figure reaches the goal. Liability never falls as profit rises
// and take-home only dips at the Class 2 threshold, so a bisection over
// pence converges.
func (s *Solver) Optimize(ctx context.Context, req OptimizationRequest) (*OptimizationResult, error) {
	if err := req.Constraints.Validate(); err != nil {
		return nil, err
	}
	if req.Goal.IsNegative() {
		return nil, &BreakEvenError{Operation: "optimize", Message: "goal cannot be negative"}
	}
	if err := req.Base.Validate(); err != nil {
		return nil, &BreakEvenError{Operation: "optimize", Message: "invalid base scenario", Cause: err}
	}
	switch req.Target {
	case TargetTakeHome, TargetLiability:
	default:
		return nil, &BreakEvenError{
			Operation: "optimize",
			Message:   fmt.Sprintf("unsupported optimization target: %s", req.Target),
		}
	}

	if req.MaxIterations == 0 {
		req.MaxIterations = s.Options.MaxIterations
	}
	if req.Tolerance.IsZero() {
		req.Tolerance = s.Options.Tolerance
	}
	defaults := DefaultConstraints()
	if req.Constraints.MinProfit == nil {
		req.Constraints.MinProfit = defaults.MinProfit
	}
	if req.Constraints.MaxProfit == nil {
		req.Constraints.MaxProfit = defaults.MaxProfit
	}

	lo := toPence(*req.Constraints.MinProfit)
	hi := toPence(*req.Constraints.MaxProfit)
	width := max(toPence(req.Tolerance), 1)
	iterations := 0

	eval := func(pence int64) (decimal.Decimal, *domain.TaxLiabilityResult, error) {
		if err := ctx.Err(); err != nil {
			return decimal.Zero, nil, err
		}
		iterations++
		r, err := s.Calculator.CalculateWithOptions(fromPence(pence), req.Base.TaxYear.StartYear, req.Base.Options)
		if err != nil {
			return decimal.Zero, nil, &BreakEvenError{Operation: "optimize", Message: "failed to calculate liability", Cause: err}
		}
		return measure(req.Target, r), r, nil
	}

	got, r, err := eval(lo)
	if err != nil {
		return nil, err
	}
	if got.GreaterThanOrEqual(req.Goal) {
		res := s.result(req, r, got, iterations)
		res.Success = true
		res.ConvergenceInfo = "Goal already met at the minimum profit"
		return res, nil
	}

	got, r, err = eval(hi)
	if err != nil {
		return nil, err
	}
	if got.LessThan(req.Goal) {
		return nil, &BreakEvenError{
			Operation: "optimize",
			Message: fmt.Sprintf("%s of %s is not reachable with profit up to %s",
				req.Target, output.FormatCurrency(req.Goal), output.FormatCurrency(fromPence(hi))),
		}
	}
	best, bestValue := r, got

	for hi-lo > width && iterations < req.MaxIterations {
		mid := lo + (hi-lo)/2
		v, mr, err := eval(mid)
		if err != nil {
			return nil, err
		}
		if v.GreaterThanOrEqual(req.Goal) {
			hi, best, bestValue = mid, mr, v
		} else {
			lo = mid
		}
	}

	res := s.result(req, best, bestValue, iterations)
	if hi-lo <= width {
		res.Success = true
		res.ConvergenceInfo = fmt.Sprintf("Converged to within %s", output.FormatCurrency(fromPence(width)))
	} else {
		res.ConvergenceInfo = fmt.Sprintf("Max iterations (%d) reached", req.MaxIterations)
	}
	return res, nil
}

// Sweep prices the base scenario at every step from from to to inclusive.
func (s *Solver) Sweep(ctx context.Context, req OptimizationRequest, from, to, step decimal.Decimal) ([]SweepPoint, error) {
	if err := req.Base.Validate(); err != nil {
		return nil, &BreakEvenError{Operation: "sweep", Message: "invalid base scenario", Cause: err}
	}
	if !step.IsPositive() {
		return nil, &BreakEvenError{Operation: "sweep", Message: "step must be positive"}
	}
	if to.LessThan(from) {
		return nil, &BreakEvenError{Operation: "sweep", Message: "to cannot be less than from"}
	}
	steps := to.Sub(from).Div(step).IntPart() + 1
	if limit := s.Options.MaxSweepSteps; limit > 0 && steps > int64(limit) {
		return nil, &BreakEvenError{
			Operation: "sweep",
			Message:   fmt.Sprintf("%d points requested, at most %d allowed", steps, limit),
		}
	}

	points := make([]SweepPoint, 0, steps)
	for profit := from; profit.LessThanOrEqual(to); profit = profit.Add(step) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := s.Calculator.CalculateWithOptions(profit, req.Base.TaxYear.StartYear, req.Base.Options)
		if err != nil {
			return nil, &BreakEvenError{Operation: "sweep", Message: "failed to calculate liability", Cause: err}
		}
		p := SweepPoint{
			Profit:         profit,
			TotalLiability: r.TotalLiability,
			TakeHome:       profit.Sub(r.TotalLiability),
		}
		if profit.IsPositive() {
			p.EffectiveRate = r.TotalLiability.Div(profit).Mul(hundred).Round(2)
		}
		if n := len(points); n > 0 {
			rate := p.TotalLiability.Sub(points[n-1].TotalLiability).Div(step).Round(4)
			p.MarginalRate = &rate
		}
		points = append(points, p)
	}
	return points, nil
}

func (s *Solver) result(req OptimizationRequest, r *domain.TaxLiabilityResult, achieved decimal.Decimal, iterations int) *OptimizationResult {
	return &OptimizationResult{
		Request:        req,
		Target:         req.Target,
		Goal:           req.Goal,
		TaxYear:        req.Base.TaxYear.Label(),
		Iterations:     iterations,
		RequiredProfit: r.NetProfit,
		Achieved:       achieved,
		TotalLiability: r.TotalLiability,
		TakeHome:       r.NetProfit.Sub(r.TotalLiability),
		Result:         r,
	}
}

func measure(target OptimizationTarget, r *domain.TaxLiabilityResult) decimal.Decimal {
	if target == TargetLiability {
		return r.TotalLiability
	}
	return r.NetProfit.Sub(r.TotalLiability)
}

func toPence(d decimal.Decimal) int64 {
	return d.Mul(penceScale).Ceil().IntPart()
}

func fromPence(p int64) decimal.Decimal {
	return decimal.New(p, -2)
}
