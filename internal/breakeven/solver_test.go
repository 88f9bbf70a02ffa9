package breakeven

import (
	"context"
	"errors"
	"testing"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/config"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/transform"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSolver(t *testing.T) *Solver {
	t.Helper()
	table, err := config.DefaultRateTable()
	require.NoError(t, err)
	return NewDefaultSolver(calculation.NewTaxLiabilityCalculator(table))
}

func request(target OptimizationTarget, goal string) OptimizationRequest {
	return OptimizationRequest{
		Base:   transform.Scenario{TaxYear: domain.NewTaxYear(2025)},
		Target: target,
		Goal:   decimal.RequireFromString(goal),
	}
}

func TestSolver_Optimize(t *testing.T) {
	solver := newTestSolver(t)

	tests := []struct {
		name       string
		target     OptimizationTarget
		goal       string
		wantProfit string
		wantInfo   string
	}{
		{"take-home at 40k", TargetTakeHome, "32686.20", "40000.00", "Converged to within £0.01"},
		{"liability at 40k", TargetLiability, "7313.80", "40000.00", "Converged to within £0.01"},
		{"first Class 2 charge", TargetLiability, "182", "6845.00", "Converged to within £0.01"},
		{"zero liability", TargetLiability, "0", "0.00", "Goal already met at the minimum profit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := solver.Optimize(context.Background(), request(tt.target, tt.goal))
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Equal(t, tt.wantProfit, res.RequiredProfit.StringFixed(2))
			assert.Equal(t, tt.wantInfo, res.ConvergenceInfo)
			assert.Equal(t, "2025/26", res.TaxYear)
			assert.True(t, res.Achieved.GreaterThanOrEqual(res.Goal))
			assert.LessOrEqual(t, res.Iterations, DefaultSolverOptions().MaxIterations)
		})
	}
}

func TestSolver_Optimize_Tolerance(t *testing.T) {
	solver := newTestSolver(t)
	req := request(TargetTakeHome, "32686.20")
	req.Tolerance = decimal.NewFromInt(100)

	res, err := solver.Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.RequiredProfit.GreaterThanOrEqual(decimal.NewFromInt(40000)))
	assert.True(t, res.RequiredProfit.LessThanOrEqual(decimal.NewFromInt(40100)))
	assert.Equal(t, "Converged to within £100.00", res.ConvergenceInfo)
}

func TestSolver_Optimize_MaxIterations(t *testing.T) {
	solver := newTestSolver(t)
	req := request(TargetTakeHome, "32686.20")
	req.MaxIterations = 5

	res, err := solver.Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 5, res.Iterations)
	assert.Equal(t, "Max iterations (5) reached", res.ConvergenceInfo)
	assert.True(t, res.Achieved.GreaterThanOrEqual(res.Goal), "best bracket end still meets the goal")
}

func TestSolver_Optimize_Errors(t *testing.T) {
	solver := newTestSolver(t)
	lo, hi := decimal.NewFromInt(10), decimal.NewFromInt(5)
	negative := decimal.NewFromInt(-1)

	tests := []struct {
		name    string
		mutate  func(*OptimizationRequest)
		wantErr string
	}{
		{"min above max", func(r *OptimizationRequest) {
			r.Constraints = Constraints{MinProfit: &lo, MaxProfit: &hi}
		}, "min_profit cannot be greater than max_profit"},
		{"negative min", func(r *OptimizationRequest) {
			r.Constraints = Constraints{MinProfit: &negative}
		}, "min_profit cannot be negative"},
		{"negative goal", func(r *OptimizationRequest) { r.Goal = negative }, "goal cannot be negative"},
		{"no tax year", func(r *OptimizationRequest) { r.Base = transform.Scenario{} }, "invalid base scenario"},
		{"unknown target", func(r *OptimizationRequest) { r.Target = "pension" }, "unsupported optimization target: pension"},
		{"unreachable", func(r *OptimizationRequest) { r.Goal = decimal.NewFromInt(2_000_000) }, "not reachable with profit up to £1,000,000.00"},
		{"year without rates", func(r *OptimizationRequest) { r.Base.TaxYear = domain.NewTaxYear(2030) }, "failed to calculate liability"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(TargetTakeHome, "1000")
			tt.mutate(&req)
			res, err := solver.Optimize(context.Background(), req)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Contains(t, err.Error(), tt.wantErr)

			var bee *BreakEvenError
			assert.True(t, errors.As(err, &bee))
		})
	}
}

func TestSolver_Optimize_Cancelled(t *testing.T) {
	solver := newTestSolver(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := solver.Optimize(ctx, request(TargetTakeHome, "1000"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSolver_Sweep(t *testing.T) {
	solver := newTestSolver(t)

	points, err := solver.Sweep(context.Background(), request(TargetLiability, "0"),
		decimal.Zero, decimal.NewFromInt(50000), decimal.NewFromInt(10000))
	require.NoError(t, err)
	require.Len(t, points, 6)

	want := []struct {
		liability string
		marginal  string
	}{
		{"0.00", ""},
		{"182.00", "0.0182"},
		{"2113.80", "0.1932"},
		{"4713.80", "0.2600"},
		{"7313.80", "0.2600"},
		{"9913.80", "0.2600"},
	}
	for i, w := range want {
		assert.Equal(t, w.liability, points[i].TotalLiability.StringFixed(2), "point %d", i)
		if w.marginal == "" {
			assert.Nil(t, points[i].MarginalRate)
			continue
		}
		require.NotNil(t, points[i].MarginalRate)
		assert.Equal(t, w.marginal, points[i].MarginalRate.StringFixed(4), "point %d", i)
	}
	assert.Equal(t, "32686.20", points[4].TakeHome.StringFixed(2))
	assert.Equal(t, "18.28", points[4].EffectiveRate.StringFixed(2))
}

func TestSolver_Sweep_Errors(t *testing.T) {
	solver := newTestSolver(t)
	req := request(TargetLiability, "0")

	_, err := solver.Sweep(context.Background(), req, decimal.Zero, decimal.NewFromInt(10), decimal.Zero)
	assert.ErrorContains(t, err, "step must be positive")

	_, err = solver.Sweep(context.Background(), req, decimal.NewFromInt(10), decimal.Zero, decimal.NewFromInt(1))
	assert.ErrorContains(t, err, "to cannot be less than from")

	_, err = solver.Sweep(context.Background(), req, decimal.Zero, decimal.NewFromInt(1_000_000), decimal.NewFromInt(1))
	assert.ErrorContains(t, err, "at most 1000 allowed")
}

func TestParseTarget(t *testing.T) {
	tests := map[string]OptimizationTarget{
		"take_home": TargetTakeHome,
		"take-home": TargetTakeHome,
		"net":       TargetTakeHome,
		"liability": TargetLiability,
		"tax":       TargetLiability,
	}
	for in, want := range tests {
		got, err := ParseTarget(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseTarget("pension")
	assert.ErrorContains(t, err, "unknown target pension")
}

func TestDefaultConstraints(t *testing.T) {
	c := DefaultConstraints()
	require.NotNil(t, c.MinProfit)
	require.NotNil(t, c.MaxProfit)
	assert.True(t, c.MinProfit.IsZero())
	assert.Equal(t, "1000000", c.MaxProfit.String())
	assert.NoError(t, c.Validate())
}

func TestBreakEvenError(t *testing.T) {
	cause := errors.New("boom")
	err := &BreakEvenError{Operation: "optimize", Message: "failed", Cause: cause}
	assert.Equal(t, "optimize: failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "optimize: failed", (&BreakEvenError{Operation: "optimize", Message: "failed"}).Error())
}

func TestTableFormatter(t *testing.T) {
	solver := newTestSolver(t)
	res, err := solver.Optimize(context.Background(), request(TargetLiability, "182"))
	require.NoError(t, err)

	out := (&TableFormatter{}).Format(res)
	for _, want := range []string{
		"BREAK-EVEN RESULT",
		"Tax Year:        2025/26",
		"Target:          Total liability of £182.00",
		"✓ Converged",
		"Net Profit:      £6,845.00",
		"Take-Home:       £6,663.00",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Over Target By")

	points, err := solver.Sweep(context.Background(), request(TargetLiability, "0"),
		decimal.NewFromInt(30000), decimal.NewFromInt(40000), decimal.NewFromInt(10000))
	require.NoError(t, err)
	sweep := (&TableFormatter{}).FormatSweep(points)
	assert.Contains(t, sweep, "LIABILITY BY PROFIT")
	assert.Contains(t, sweep, "£7,313.80")
	assert.Contains(t, sweep, "26.0%")
}

func TestJSONFormatter(t *testing.T) {
	solver := newTestSolver(t)
	res, err := solver.Optimize(context.Background(), request(TargetTakeHome, "32686.20"))
	require.NoError(t, err)

	out, err := (&JSONFormatter{}).Format(res)
	require.NoError(t, err)
	assert.Contains(t, out, `"target":"take_home"`)
	assert.Contains(t, out, `"required_profit":"40000"`)
	assert.Contains(t, out, `"success":true`)

	points, err := solver.Sweep(context.Background(), request(TargetLiability, "0"),
		decimal.Zero, decimal.NewFromInt(10000), decimal.NewFromInt(10000))
	require.NoError(t, err)
	sweep, err := (&JSONFormatter{Pretty: true}).FormatSweep(points)
	require.NoError(t, err)
	assert.Contains(t, sweep, `"marginal_rate": "0.0182"`)
}
