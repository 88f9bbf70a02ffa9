package saga

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

// MachineConfig supplies the Machine's collaborators. Zero fields use
// the system clock, crypto/rand and random UUIDs.
type MachineConfig struct {
	Clock   declaration.Clock
	Entropy io.Reader
	NewID   func() string
}

// Machine is the submission state machine. Every method is a synchronous
// reducer step; work that must happen elsewhere is returned as an Effect and
// its result fed back through CompleteCalculation or CompleteSubmission.
// A Machine is not safe for concurrent use. Workflow serializes access.
type Machine struct {
	clock   declaration.Clock
	entropy io.Reader
	newID   func() string

	snap    *Snapshot
	builder *declaration.Builder
}

// NewMachine returns a Machine with no submission started.
func NewMachine(cfg MachineConfig) *Machine {
	m := &Machine{clock: cfg.Clock, entropy: cfg.Entropy, newID: cfg.NewID}
	if m.clock == nil {
		m.clock = declaration.SystemClock{}
	}
	if m.newID == nil {
		m.newID = uuid.NewString
	}
	return m
}

// State returns the current state, StateNone when nothing is started.
func (m *Machine) State() State {
	if m.snap == nil {
		return StateNone
	}
	return m.snap.State
}

// Step returns the current wizard step.
func (m *Machine) Step() Step {
	if m.snap == nil {
		return StepNone
	}
	return m.snap.Step
}

// ID returns the current saga ID, or "".
func (m *Machine) ID() string {
	if m.snap == nil {
		return ""
	}
	return m.snap.ID
}

// CanConfirm reports whether declarations may be confirmed now.
func (m *Machine) CanConfirm() bool {
	return m.State() == StateCalculated
}

// CanSubmit is true only when the calculation is current and every
// declaration is confirmed. Neither condition alone is enough.
func (m *Machine) CanSubmit() bool {
	return m.State() == StateCalculated && m.builder != nil && m.builder.Complete()
}

// Snapshot returns a copy of the current submission. The zero Snapshot
// means nothing is started.
func (m *Machine) Snapshot() Snapshot {
	if m.snap == nil {
		return Snapshot{}
	}
	s := *m.snap
	s.Confirmed = nil
	s.Declaration = nil
	if m.builder != nil {
		s.Confirmed = m.builder.Confirmed()
		if decl, err := m.builder.Build(); err == nil {
			s.Declaration = decl
		}
	}
	return s
}

// StartSubmission begins a new submission for taxYear.
func (m *Machine) StartSubmission(taxYear domain.TaxYear) error {
	if m.snap != nil {
		return illegal("start", m.snap.State, ReasonAlreadyStarted)
	}
	if taxYear.IsZero() {
		return fmt.Errorf("tax year is required")
	}
	now := m.now()
	m.snap = &Snapshot{
		ID:                  m.newID(),
		TaxYear:             taxYear,
		State:               StateInitiated,
		Step:                StepReview,
		TaxDeductedAtSource: decimal.Zero,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	m.builder = declaration.NewBuilder(taxYear, m.clock, m.entropy)
	return nil
}

// SetFinancialSummary records income and expenses. Changing them after a
// calculation discards the calculation and any confirmations, since they
// were given against the old figures.
func (m *Machine) SetFinancialSummary(summary domain.FinancialSummary) error {
	if err := m.editable("update summary"); err != nil {
		return err
	}
	m.snap.Summary = summary
	m.invalidateCalculation()
	return nil
}

// SetCalculationOptions records tax deducted at source and the voluntary
// Class 2 opt-in. Like SetFinancialSummary it invalidates a calculation.
func (m *Machine) SetCalculationOptions(opts calculation.Options) error {
	if err := m.editable("update options"); err != nil {
		return err
	}
	m.snap.TaxDeductedAtSource = opts.TaxDeductedAtSource
	m.snap.VoluntaryClass2 = opts.VoluntaryClass2
	m.invalidateCalculation()
	return nil
}

// ExecuteNextStep advances the wizard. From INITIATED it starts the
// calculation; from CALCULATED it moves on to the declaration page. In any
// other started state it does nothing.
func (m *Machine) ExecuteNextStep() (Effect, error) {
	if m.snap == nil {
		return nil, illegal("continue", StateNone, ReasonNotStarted)
	}
	switch m.snap.State {
	case StateInitiated:
		if !m.snap.Summary.Complete() {
			return nil, illegal("calculate", StateInitiated, ReasonSummaryIncomplete)
		}
		return m.beginCalculation(), nil
	case StateCalculated:
		if m.snap.Step < StepDeclare {
			m.snap.Step = StepDeclare
			m.touch()
		}
	}
	return nil, nil
}

// CompleteCalculation applies a calculation result. It reports false for a
// completion that no longer matches the running attempt.
func (m *Machine) CompleteCalculation(done CalculationDone) bool {
	if !m.current(done.SagaID, done.Attempt, StateCalculating) {
		return false
	}
	if done.Err != nil {
		m.snap.State = StateInitiated
		m.snap.Step = StepReview
		m.snap.Failure = done.Err.Error()
		m.touch()
		return true
	}
	m.snap.State = StateCalculated
	m.snap.Step = StepReviewCalculation
	m.snap.Result = done.Result
	m.snap.Failure = ""
	m.touch()
	return true
}

// ConfirmDeclaration confirms one declaration statement.
func (m *Machine) ConfirmDeclaration(key declaration.Key) error {
	if m.snap == nil {
		return illegal("confirm", StateNone, ReasonNotStarted)
	}
	if !m.CanConfirm() {
		return illegal("confirm", m.snap.State, ReasonCalculationPending)
	}
	if err := m.builder.Confirm(key); err != nil {
		return err
	}
	m.touch()
	return nil
}

// RevokeDeclaration withdraws a confirmation before the declaration is sealed.
func (m *Machine) RevokeDeclaration(key declaration.Key) error {
	if m.snap == nil {
		return illegal("revoke", StateNone, ReasonNotStarted)
	}
	if !m.CanConfirm() {
		return illegal("revoke", m.snap.State, ReasonCalculationPending)
	}
	if err := m.builder.Revoke(key); err != nil {
		return err
	}
	m.touch()
	return nil
}

// ConfirmAndSubmit seals the declaration and requests submission.
func (m *Machine) ConfirmAndSubmit() (Effect, error) {
	if m.snap == nil {
		return nil, illegal("submit", StateNone, ReasonNotStarted)
	}
	if m.snap.State != StateCalculated {
		return nil, illegal("submit", m.snap.State, ReasonCalculationPending)
	}
	decl, err := m.builder.Build()
	if err != nil {
		return nil, illegal("submit", m.snap.State, ReasonDeclarationMissing)
	}
	m.snap.State = StateDeclaring
	m.snap.Step = StepDeclare
	m.snap.Attempt++
	m.snap.Failure = ""
	m.touch()
	return SubmitEffect{
		SagaID:      m.snap.ID,
		Attempt:     m.snap.Attempt,
		Declaration: decl,
		Result:      m.snap.Result,
	}, nil
}

// CompleteSubmission applies HMRC's answer. It reports false for a stale
// completion.
func (m *Machine) CompleteSubmission(done SubmissionDone) bool {
	if !m.current(done.SagaID, done.Attempt, StateDeclaring) {
		return false
	}
	switch {
	case done.Err != nil:
		m.snap.State = StateFailed
		m.snap.Failure = done.Err.Error()
	case !done.Outcome.Accepted:
		m.snap.State = StateFailed
		m.snap.Failure = done.Outcome.Message
		if m.snap.Failure == "" {
			m.snap.Failure = "submission rejected"
		}
	default:
		m.snap.State = StateSubmitted
		m.snap.Reference = done.Outcome.Reference
		m.snap.Failure = ""
	}
	m.touch()
	return true
}

// Retry returns a failed submission to CALCULATED with its calculation and
// sealed declaration intact.
func (m *Machine) Retry() error {
	if m.snap == nil {
		return illegal("retry", StateNone, ReasonNotStarted)
	}
	if m.snap.State != StateFailed {
		return illegal("retry", m.snap.State, ReasonNotFailed)
	}
	m.snap.State = StateCalculated
	m.snap.Step = StepDeclare
	m.touch()
	return nil
}

// Cancel discards the submission. It is always allowed; results of any
// outstanding effect are ignored when they arrive.
func (m *Machine) Cancel() {
	m.snap = nil
	m.builder = nil
}

// Resume replaces the current submission with a persisted one. A saga that
// was calculating is recalculated. A saga that was submitting cannot know
// whether HMRC received it, so it resumes as FAILED with that explanation.
func (m *Machine) Resume(snap Snapshot) (Effect, error) {
	if !snap.Active() {
		return nil, illegal("resume", snap.State, ReasonNothingToResume)
	}
	if _, ok := stateNames[snap.State]; !ok {
		return nil, fmt.Errorf("cannot resume submission %s: unknown state %d", snap.ID, int(snap.State))
	}
	builder, err := declaration.Restore(snap.TaxYear, m.clock, m.entropy, snap.Confirmed, snap.Declaration)
	if err != nil {
		return nil, fmt.Errorf("cannot resume submission %s: %w", snap.ID, err)
	}

	restored := snap
	restored.Confirmed = nil
	restored.Declaration = nil
	m.snap = &restored
	m.builder = builder

	switch restored.State {
	case StateCalculating:
		return m.beginCalculation(), nil
	case StateDeclaring:
		m.snap.State = StateFailed
		m.snap.Failure = ReasonOutcomeUnknown
		m.touch()
	}
	return nil, nil
}

// rollback reinstates a snapshot taken before a transition that could not be
// persisted. The zero Snapshot clears the Machine.
func (m *Machine) rollback(prev Snapshot) error {
	if !prev.Active() {
		m.Cancel()
		return nil
	}
	builder, err := declaration.Restore(prev.TaxYear, m.clock, m.entropy, prev.Confirmed, prev.Declaration)
	if err != nil {
		return err
	}
	restored := prev
	restored.Confirmed = nil
	restored.Declaration = nil
	m.snap = &restored
	m.builder = builder
	return nil
}

func (m *Machine) beginCalculation() Effect {
	m.snap.State = StateCalculating
	m.snap.Step = StepCalculate
	m.snap.Attempt++
	m.snap.Failure = ""
	m.touch()
	return CalculateEffect{
		SagaID:    m.snap.ID,
		Attempt:   m.snap.Attempt,
		TaxYear:   m.snap.TaxYear,
		NetProfit: m.snap.Summary.NetProfit(),
		Options: calculation.Options{
			TaxDeductedAtSource: m.snap.TaxDeductedAtSource,
			VoluntaryClass2:     m.snap.VoluntaryClass2,
		},
	}
}

func (m *Machine) editable(op string) error {
	if m.snap == nil {
		return illegal(op, StateNone, ReasonNotStarted)
	}
	if m.snap.State != StateInitiated && m.snap.State != StateCalculated {
		return illegal(op, m.snap.State, ReasonSummaryLocked)
	}
	return nil
}

func (m *Machine) invalidateCalculation() {
	m.snap.State = StateInitiated
	m.snap.Step = StepReview
	m.snap.Result = nil
	m.snap.Failure = ""
	m.builder = declaration.NewBuilder(m.snap.TaxYear, m.clock, m.entropy)
	m.touch()
}

func (m *Machine) current(id string, attempt int, state State) bool {
	return m.snap != nil && m.snap.ID == id && m.snap.Attempt == attempt && m.snap.State == state
}

func (m *Machine) touch() {
	m.snap.UpdatedAt = m.now()
}

func (m *Machine) now() time.Time {
	return m.clock.Now().UTC()
}
