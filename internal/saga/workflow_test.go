package saga_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/config"
	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/saga"
	"github.com/rgehrsitz/satax/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubmitter struct {
	mu      sync.Mutex
	calls   int
	gate    chan struct{}
	outcome saga.Outcome
	err     error
	panics  bool
}

func (f *fakeSubmitter) Submit(ctx context.Context, decl *declaration.SubmissionDeclaration, result *domain.TaxLiabilityResult) (saga.Outcome, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return saga.Outcome{}, ctx.Err()
		}
	}
	if f.panics {
		panic("boom")
	}
	if decl == nil || result == nil {
		return saga.Outcome{}, errors.New("missing payload")
	}
	return f.outcome, f.err
}

func (f *fakeSubmitter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type harness struct {
	wf    *saga.Workflow
	store saga.Store
	sub   *fakeSubmitter
	ctx   context.Context
}

func newHarness(t *testing.T, sub *fakeSubmitter) *harness {
	t.Helper()
	return newHarnessWithStore(t, sub, store.NewMemoryStore())
}

func newHarnessWithStore(t *testing.T, sub *fakeSubmitter, st saga.Store) *harness {
	t.Helper()
	table, err := config.DefaultRateTable()
	require.NoError(t, err)

	wf, err := saga.NewWorkflow(saga.WorkflowConfig{
		Calculator:    calculation.NewTaxLiabilityCalculator(table),
		Submitter:     sub,
		Store:         st,
		EffectTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	runCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = wf.Run(runCtx)
		close(done)
	}()
	t.Cleanup(func() {
		stop()
		<-done
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return &harness{wf: wf, store: st, sub: sub, ctx: ctx}
}

func (h *harness) calculated(t *testing.T) saga.Snapshot {
	t.Helper()
	_, err := h.wf.Start(h.ctx, domain.NewTaxYear(2025))
	require.NoError(t, err)
	require.NoError(t, h.wf.SetFinancialSummary(h.ctx, domain.NewFinancialSummary(decimal.NewFromInt(50000), decimal.NewFromInt(10000))))
	require.NoError(t, h.wf.ExecuteNextStep(h.ctx))
	snap, err := h.wf.Wait(h.ctx, saga.StateCalculated, saga.StateInitiated)
	require.NoError(t, err)
	require.Equal(t, saga.StateCalculated, snap.State, snap.Failure)
	return snap
}

func (h *harness) confirmAll(t *testing.T) {
	t.Helper()
	for _, k := range declaration.Keys() {
		require.NoError(t, h.wf.ConfirmDeclaration(h.ctx, k))
	}
}

func TestWorkflow_AcceptedSubmission(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{outcome: saga.Outcome{Accepted: true, Reference: "XAIT00000987654"}})

	snap := h.calculated(t)
	assert.Equal(t, "7313.80", snap.Result.TotalLiability.StringFixed(2))

	ok, err := h.wf.CanSubmit(h.ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	h.confirmAll(t)
	ok, err = h.wf.CanSubmit(h.ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, h.wf.ConfirmAndSubmit(h.ctx))
	final, err := h.wf.Wait(h.ctx, saga.StateSubmitted, saga.StateFailed)
	require.NoError(t, err)
	assert.Equal(t, saga.StateSubmitted, final.State)
	assert.Equal(t, "XAIT00000987654", final.Reference)
	assert.Equal(t, 1, h.sub.Calls())

	stored, err := h.store.Load(h.ctx, final.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateSubmitted, stored.State)
	require.NotNil(t, stored.Declaration)
	assert.Equal(t, final.Declaration.ID, stored.Declaration.ID)
}

func TestWorkflow_RejectionAndRetry(t *testing.T) {
	sub := &fakeSubmitter{outcome: saga.Outcome{Message: "INVALID_REQUEST"}}
	h := newHarness(t, sub)
	h.calculated(t)
	h.confirmAll(t)

	require.NoError(t, h.wf.ConfirmAndSubmit(h.ctx))
	failed, err := h.wf.Wait(h.ctx, saga.StateFailed)
	require.NoError(t, err)
	assert.Equal(t, "INVALID_REQUEST", failed.Failure)

	sub.mu.Lock()
	sub.outcome = saga.Outcome{Accepted: true, Reference: "R2"}
	sub.mu.Unlock()

	require.NoError(t, h.wf.Retry(h.ctx))
	require.NoError(t, h.wf.ConfirmAndSubmit(h.ctx))
	final, err := h.wf.Wait(h.ctx, saga.StateSubmitted)
	require.NoError(t, err)
	assert.Equal(t, "R2", final.Reference)
	assert.Equal(t, failed.Declaration.ID, final.Declaration.ID)
}

func TestWorkflow_SubmitterPanicBecomesFailure(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{panics: true})
	h.calculated(t)
	h.confirmAll(t)

	require.NoError(t, h.wf.ConfirmAndSubmit(h.ctx))
	failed, err := h.wf.Wait(h.ctx, saga.StateFailed)
	require.NoError(t, err)
	assert.Contains(t, failed.Failure, "boom")
}

func TestWorkflow_CancelDuringSubmission(t *testing.T) {
	sub := &fakeSubmitter{gate: make(chan struct{}), outcome: saga.Outcome{Accepted: true, Reference: "LATE"}}
	h := newHarness(t, sub)
	snap := h.calculated(t)
	h.confirmAll(t)

	require.NoError(t, h.wf.ConfirmAndSubmit(h.ctx))
	require.Eventually(t, func() bool { return sub.Calls() == 1 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, h.wf.Cancel(h.ctx))
	close(sub.gate)

	// Let the late completion reach the queue, then check it was dropped.
	time.Sleep(50 * time.Millisecond)
	current, err := h.wf.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.False(t, current.Active())

	_, err = h.store.Load(h.ctx, snap.ID)
	assert.ErrorIs(t, err, saga.ErrNotFound)
}

func TestWorkflow_CalculationFailure(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{})
	_, err := h.wf.Start(h.ctx, domain.NewTaxYear(2031))
	require.NoError(t, err)
	require.NoError(t, h.wf.SetFinancialSummary(h.ctx, domain.NewFinancialSummary(decimal.NewFromInt(100), decimal.Zero)))
	require.NoError(t, h.wf.ExecuteNextStep(h.ctx))

	snap, err := h.wf.Wait(h.ctx, saga.StateInitiated)
	require.NoError(t, err)
	assert.Contains(t, snap.Failure, "no rates configured for tax year 2031/32")
}

func TestWorkflow_NotStarted(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{})
	err := h.wf.ExecuteNextStep(h.ctx)
	assert.EqualError(t, err, "Cannot continue: submission not started")

	err = h.wf.ConfirmAndSubmit(h.ctx)
	assert.True(t, saga.IsIllegalState(err))
}

func TestWorkflow_Resume(t *testing.T) {
	first := newHarness(t, &fakeSubmitter{})
	snap := first.calculated(t)
	require.NoError(t, first.wf.ConfirmDeclaration(first.ctx, declaration.KeyAccuracy))
	require.NoError(t, first.wf.ExecuteNextStep(first.ctx))

	stored, err := first.store.Load(first.ctx, snap.ID)
	require.NoError(t, err)

	second := newHarness(t, &fakeSubmitter{outcome: saga.Outcome{Accepted: true, Reference: "RESUMED"}})
	require.NoError(t, second.store.Save(second.ctx, stored))

	resumed, err := second.wf.Resume(second.ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateCalculated, resumed.State)
	assert.Equal(t, saga.StepDeclare, resumed.Step)
	assert.Equal(t, []declaration.Key{declaration.KeyAccuracy}, resumed.Confirmed)

	second.confirmAll(t)
	require.NoError(t, second.wf.ConfirmAndSubmit(second.ctx))
	final, err := second.wf.Wait(second.ctx, saga.StateSubmitted)
	require.NoError(t, err)
	assert.Equal(t, "RESUMED", final.Reference)

	_, err = second.wf.Resume(second.ctx, "missing")
	assert.ErrorIs(t, err, saga.ErrNotFound)
}

func TestWorkflow_ResumeInterruptedSubmission(t *testing.T) {
	h := newHarness(t, &fakeSubmitter{})
	snap := saga.Snapshot{
		ID:        "interrupted",
		TaxYear:   domain.NewTaxYear(2025),
		State:     saga.StateDeclaring,
		Step:      saga.StepDeclare,
		Summary:   domain.NewFinancialSummary(decimal.NewFromInt(50000), decimal.NewFromInt(10000)),
		Confirmed: declaration.Keys(),
		Attempt:   2,
	}
	require.NoError(t, h.store.Save(h.ctx, snap))

	resumed, err := h.wf.Resume(h.ctx, "interrupted")
	require.NoError(t, err)
	assert.Equal(t, saga.StateFailed, resumed.State)
	assert.Equal(t, saga.ReasonOutcomeUnknown, resumed.Failure)
	assert.Zero(t, h.sub.Calls(), "an interrupted submission is never resent automatically")

	stored, err := h.store.Load(h.ctx, "interrupted")
	require.NoError(t, err)
	assert.Equal(t, saga.StateFailed, stored.State)
}

func TestNewWorkflow_RequiresCollaborators(t *testing.T) {
	_, err := saga.NewWorkflow(saga.WorkflowConfig{})
	assert.Error(t, err)
}

// flakyStore fails every Save while failing is set.
type flakyStore struct {
	saga.Store
	failing atomic.Bool
}

func (s *flakyStore) Save(ctx context.Context, snap saga.Snapshot) error {
	if s.failing.Load() {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, snap)
}

func TestWorkflow_FailedSaveRollsBack(t *testing.T) {
	st := &flakyStore{Store: store.NewMemoryStore()}
	h := newHarnessWithStore(t, &fakeSubmitter{outcome: saga.Outcome{Accepted: true, Reference: "AFTER-RETRY"}}, st)

	started, err := h.wf.Start(h.ctx, domain.NewTaxYear(2025))
	require.NoError(t, err)
	require.NoError(t, h.wf.SetFinancialSummary(h.ctx, domain.NewFinancialSummary(decimal.NewFromInt(50000), decimal.NewFromInt(10000))))

	st.failing.Store(true)
	err = h.wf.ExecuteNextStep(h.ctx)
	require.ErrorContains(t, err, "disk full")

	current, err := h.wf.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, saga.StateInitiated, current.State, "no calculation is left running unsaved")
	assert.Zero(t, current.Attempt)

	st.failing.Store(false)
	require.NoError(t, h.wf.ExecuteNextStep(h.ctx))
	calculated, err := h.wf.Wait(h.ctx, saga.StateCalculated)
	require.NoError(t, err)
	assert.Equal(t, 1, calculated.Attempt)

	h.confirmAll(t)
	st.failing.Store(true)
	err = h.wf.ConfirmAndSubmit(h.ctx)
	require.ErrorContains(t, err, "disk full")
	assert.Zero(t, h.sub.Calls())

	current, err = h.wf.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, saga.StateCalculated, current.State)
	assert.Len(t, current.Confirmed, declaration.Count())
	ok, err := h.wf.CanSubmit(h.ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := st.Load(h.ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, saga.StateCalculated, stored.State)

	st.failing.Store(false)
	require.NoError(t, h.wf.ConfirmAndSubmit(h.ctx))
	final, err := h.wf.Wait(h.ctx, saga.StateSubmitted, saga.StateFailed)
	require.NoError(t, err)
	assert.Equal(t, "AFTER-RETRY", final.Reference)
	assert.Equal(t, 1, h.sub.Calls())
}

func TestWorkflow_FailedSaveOnResume(t *testing.T) {
	st := &flakyStore{Store: store.NewMemoryStore()}
	h := newHarnessWithStore(t, &fakeSubmitter{}, st)
	require.NoError(t, st.Save(h.ctx, saga.Snapshot{
		ID:      "calculating",
		TaxYear: domain.NewTaxYear(2025),
		State:   saga.StateCalculating,
		Step:    saga.StepCalculate,
		Summary: domain.NewFinancialSummary(decimal.NewFromInt(50000), decimal.NewFromInt(10000)),
		Attempt: 1,
	}))

	st.failing.Store(true)
	_, err := h.wf.Resume(h.ctx, "calculating")
	require.ErrorContains(t, err, "disk full")
	current, err := h.wf.Snapshot(h.ctx)
	require.NoError(t, err)
	assert.False(t, current.Active())

	st.failing.Store(false)
	_, err = h.wf.Resume(h.ctx, "calculating")
	require.NoError(t, err)
	snap, err := h.wf.Wait(h.ctx, saga.StateCalculated)
	require.NoError(t, err)
	assert.Equal(t, "7313.80", snap.Result.TotalLiability.StringFixed(2))
	assert.Equal(t, 2, snap.Attempt)
}
