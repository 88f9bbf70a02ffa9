package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/logging"
	"github.com/shopspring/decimal"
)

// Calculator produces a liability. *calculation.TaxLiabilityCalculator satisfies it.
type Calculator interface {
	CalculateWithOptions(netProfit decimal.Decimal, taxYearStartYear int, opts calculation.Options) (*domain.TaxLiabilityResult, error)
}

// Submitter sends a sealed declaration and its liability to HMRC. A returned
// error is a transport or authentication failure; a rejection is an Outcome.
type Submitter interface {
	Submit(ctx context.Context, decl *declaration.SubmissionDeclaration, result *domain.TaxLiabilityResult) (Outcome, error)
}

// Store persists snapshots by saga ID. Load returns ErrNotFound for an unknown ID.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, id string) (Snapshot, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Snapshot, error)
}

// DefaultEffectTimeout bounds a single calculation or submission.
const DefaultEffectTimeout = 60 * time.Second

// WorkflowConfig wires a Workflow.
type WorkflowConfig struct {
	Machine       MachineConfig
	Calculator    Calculator
	Submitter     Submitter
	Store         Store
	Logger        logging.Logger
	EffectTimeout time.Duration
}

type waiter struct {
	states []State
	ch     chan Snapshot
}

// Workflow drives a Machine from one dispatch goroutine. Public methods
// enqueue their mutation and wait for it to run; effects execute on their
// own goroutines and post completions back to the same queue, so every
// state change, including one racing a Cancel, is applied in order.
type Workflow struct {
	machine   *Machine
	calc      Calculator
	submitter Submitter
	store     Store
	logger    logging.Logger
	timeout   time.Duration

	queue   chan func()
	stopped chan struct{}
	runCtx  context.Context
	waiters []waiter
}

// NewWorkflow creates a Workflow. Call Run before using it.
func NewWorkflow(cfg WorkflowConfig) (*Workflow, error) {
	if cfg.Calculator == nil {
		return nil, errors.New("calculator is required")
	}
	if cfg.Submitter == nil {
		return nil, errors.New("submitter is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	timeout := cfg.EffectTimeout
	if timeout <= 0 {
		timeout = DefaultEffectTimeout
	}
	return &Workflow{
		machine:   NewMachine(cfg.Machine),
		calc:      cfg.Calculator,
		submitter: cfg.Submitter,
		store:     cfg.Store,
		logger:    logging.OrNop(cfg.Logger),
		timeout:   timeout,
		queue:     make(chan func(), 16),
		stopped:   make(chan struct{}),
	}, nil
}

// Run processes the queue until ctx is cancelled.
func (w *Workflow) Run(ctx context.Context) error {
	w.runCtx = ctx
	defer close(w.stopped)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-w.queue:
			fn()
		}
	}
}

// Start begins a submission for taxYear and persists it.
func (w *Workflow) Start(ctx context.Context, taxYear domain.TaxYear) (Snapshot, error) {
	var snap Snapshot
	err := w.dispatch(ctx, func() error {
		err := w.apply(ctx, func() (Effect, error) {
			return nil, w.machine.StartSubmission(taxYear)
		})
		if err != nil {
			return err
		}
		snap = w.machine.Snapshot()
		w.logger.Infof("started submission %s for %s", snap.ID, taxYear.Label())
		return nil
	})
	return snap, err
}

// SetFinancialSummary records income and expenses.
func (w *Workflow) SetFinancialSummary(ctx context.Context, summary domain.FinancialSummary) error {
	return w.dispatch(ctx, func() error {
		return w.apply(ctx, func() (Effect, error) {
			return nil, w.machine.SetFinancialSummary(summary)
		})
	})
}

// SetCalculationOptions records deductions and the Class 2 opt-in.
func (w *Workflow) SetCalculationOptions(ctx context.Context, opts calculation.Options) error {
	return w.dispatch(ctx, func() error {
		return w.apply(ctx, func() (Effect, error) {
			return nil, w.machine.SetCalculationOptions(opts)
		})
	})
}

// ExecuteNextStep advances the submission, starting the calculation when
// leaving INITIATED.
func (w *Workflow) ExecuteNextStep(ctx context.Context) error {
	return w.dispatch(ctx, func() error {
		return w.apply(ctx, w.machine.ExecuteNextStep)
	})
}

// ConfirmDeclaration confirms one declaration statement.
func (w *Workflow) ConfirmDeclaration(ctx context.Context, key declaration.Key) error {
	return w.dispatch(ctx, func() error {
		return w.apply(ctx, func() (Effect, error) {
			return nil, w.machine.ConfirmDeclaration(key)
		})
	})
}

// RevokeDeclaration withdraws one confirmation.
func (w *Workflow) RevokeDeclaration(ctx context.Context, key declaration.Key) error {
	return w.dispatch(ctx, func() error {
		return w.apply(ctx, func() (Effect, error) {
			return nil, w.machine.RevokeDeclaration(key)
		})
	})
}

// ConfirmAndSubmit seals the declaration and starts the HMRC submission.
func (w *Workflow) ConfirmAndSubmit(ctx context.Context) error {
	return w.dispatch(ctx, func() error {
		if err := w.apply(ctx, w.machine.ConfirmAndSubmit); err != nil {
			return err
		}
		w.logger.Infof("submitting %s", w.machine.ID())
		return nil
	})
}

// Retry returns a failed submission to CALCULATED.
func (w *Workflow) Retry(ctx context.Context) error {
	return w.dispatch(ctx, func() error {
		return w.apply(ctx, func() (Effect, error) {
			return nil, w.machine.Retry()
		})
	})
}

// Cancel discards the current submission and its stored record.
func (w *Workflow) Cancel(ctx context.Context) error {
	return w.dispatch(ctx, func() error {
		id := w.machine.ID()
		w.machine.Cancel()
		w.notify()
		if id == "" {
			return nil
		}
		w.logger.Infof("cancelled submission %s", id)
		if err := w.store.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("failed to delete submission %s: %w", id, err)
		}
		return nil
	})
}

// Resume loads a stored submission and continues from its exact state.
func (w *Workflow) Resume(ctx context.Context, id string) (Snapshot, error) {
	var snap Snapshot
	err := w.dispatch(ctx, func() error {
		stored, err := w.store.Load(ctx, id)
		if err != nil {
			return err
		}
		err = w.apply(ctx, func() (Effect, error) {
			return w.machine.Resume(stored)
		})
		if err != nil {
			return err
		}
		snap = w.machine.Snapshot()
		w.logger.Infof("resumed submission %s in state %s", id, snap.State)
		return nil
	})
	return snap, err
}

// Snapshot returns the current submission.
func (w *Workflow) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := w.dispatch(ctx, func() error {
		snap = w.machine.Snapshot()
		return nil
	})
	return snap, err
}

// CanSubmit reports Machine.CanSubmit.
func (w *Workflow) CanSubmit(ctx context.Context) (bool, error) {
	var ok bool
	err := w.dispatch(ctx, func() error {
		ok = w.machine.CanSubmit()
		return nil
	})
	return ok, err
}

// Wait blocks until the submission is in one of states and returns it.
func (w *Workflow) Wait(ctx context.Context, states ...State) (Snapshot, error) {
	ch := make(chan Snapshot, 1)
	err := w.dispatch(ctx, func() error {
		if matches(w.machine.State(), states) {
			ch <- w.machine.Snapshot()
			return nil
		}
		w.waiters = append(w.waiters, waiter{states: states, ch: ch})
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-ch:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-w.stopped:
		return Snapshot{}, ErrStopped
	}
}

// dispatch runs fn on the dispatch goroutine and returns its error.
func (w *Workflow) dispatch(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	select {
	case w.queue <- func() { result <- fn() }:
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopped:
		return ErrStopped
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-w.stopped:
		return ErrStopped
	}
}

// post queues a completion without a caller waiting on it.
func (w *Workflow) post(fn func()) {
	select {
	case w.queue <- fn:
	case <-w.stopped:
	}
}

// launch runs an effect off the dispatch goroutine.
func (w *Workflow) launch(eff Effect) {
	switch e := eff.(type) {
	case CalculateEffect:
		go w.runCalculation(e)
	case SubmitEffect:
		go w.runSubmission(e)
	}
}

func (w *Workflow) runCalculation(e CalculateEffect) {
	var (
		result *domain.TaxLiabilityResult
		err    error
	)
	func() {
		defer recoverInto(&err)
		result, err = w.calc.CalculateWithOptions(e.NetProfit, e.TaxYear.StartYear, e.Options)
	}()
	if err != nil {
		w.logger.Warnf("calculation for %s failed: %v", e.SagaID, err)
	}
	w.post(func() {
		if !w.machine.CompleteCalculation(CalculationDone{SagaID: e.SagaID, Attempt: e.Attempt, Result: result, Err: err}) {
			w.logger.Debugf("ignored stale calculation for %s attempt %d", e.SagaID, e.Attempt)
			return
		}
		w.commitAsync()
	})
}

func (w *Workflow) runSubmission(e SubmitEffect) {
	ctx, cancel := context.WithTimeout(w.runCtx, w.timeout)
	defer cancel()

	var (
		outcome Outcome
		err     error
	)
	func() {
		defer recoverInto(&err)
		outcome, err = w.submitter.Submit(ctx, e.Declaration, e.Result)
	}()
	switch {
	case err != nil:
		w.logger.Errorf("submission %s failed: %v", e.SagaID, err)
	case !outcome.Accepted:
		w.logger.Warnf("submission %s rejected: %s", e.SagaID, outcome.Message)
	default:
		w.logger.Infof("submission %s accepted with reference %s", e.SagaID, outcome.Reference)
	}
	w.post(func() {
		if !w.machine.CompleteSubmission(SubmissionDone{SagaID: e.SagaID, Attempt: e.Attempt, Outcome: outcome, Err: err}) {
			w.logger.Debugf("ignored stale submission result for %s attempt %d", e.SagaID, e.Attempt)
			return
		}
		w.commitAsync()
	})
}

// apply runs one Machine transition, persists it and launches any effect it
// produced. A transition that cannot be saved is rolled back, leaving the
// Machine where it was so the caller can try again.
func (w *Workflow) apply(ctx context.Context, transition func() (Effect, error)) error {
	prev := w.machine.Snapshot()
	eff, err := transition()
	if err != nil {
		return err
	}
	if err := w.commit(ctx); err != nil {
		if rbErr := w.machine.rollback(prev); rbErr != nil {
			w.logger.Errorf("failed to roll back submission %s: %v", prev.ID, rbErr)
		}
		return err
	}
	w.launch(eff)
	return nil
}

// commit persists the current snapshot and wakes matching waiters.
func (w *Workflow) commit(ctx context.Context) error {
	if id := w.machine.ID(); id != "" {
		if err := w.store.Save(ctx, w.machine.Snapshot()); err != nil {
			return fmt.Errorf("failed to save submission %s: %w", id, err)
		}
	}
	w.notify()
	return nil
}

// commitAsync persists an effect's completion. The completion has already
// happened, so a save failure is logged and waiters still see the new state.
func (w *Workflow) commitAsync() {
	ctx, cancel := context.WithTimeout(w.runCtx, w.timeout)
	defer cancel()
	if err := w.commit(ctx); err != nil {
		w.logger.Errorf("%v", err)
		w.notify()
	}
}

func (w *Workflow) notify() {
	state := w.machine.State()
	remaining := w.waiters[:0]
	for _, wt := range w.waiters {
		if matches(state, wt.states) {
			wt.ch <- w.machine.Snapshot()
			continue
		}
		remaining = append(remaining, wt)
	}
	w.waiters = remaining
}

func matches(state State, states []State) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}
