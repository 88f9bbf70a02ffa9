package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/logging"
	"github.com/rgehrsitz/satax/internal/saga"
)

// Indexes into Model.inputs.
const (
	fieldIncome = iota
	fieldExpenses
	fieldDeducted
	fieldCount
)

// Config wires the wizard to its collaborators. Store is optional; without
// it nothing is persisted. Resume, when set, continues that submission
// instead of starting a new one.
type Config struct {
	Machine    *saga.Machine
	Calculator saga.Calculator
	Submitter  saga.Submitter
	Store      saga.Store
	Logger     logging.Logger
	TaxYear    domain.TaxYear
	Resume     *saga.Snapshot
}

// Model is the submission wizard. The bubbletea event loop is its only
// writer, so every machine transition happens in Update.
type Model struct {
	machine   *saga.Machine
	calc      saga.Calculator
	submitter saga.Submitter
	store     saga.Store
	saves     *saver
	logger    logging.Logger
	taxYear   domain.TaxYear

	// Terminal dimensions
	width  int
	height int

	// Review step
	inputs    []textinput.Model
	focus     int
	voluntary bool

	// Editing a calculated summary before it is resubmitted.
	editing bool

	// Declare step
	cursor int

	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	showHelp bool

	pending tea.Cmd
	status  string
	err     error
}

// NewModel creates the wizard and starts or resumes a submission.
func NewModel(cfg Config) (Model, error) {
	if cfg.Machine == nil {
		return Model{}, errors.New("tui: machine is required")
	}
	if cfg.Calculator == nil {
		return Model{}, errors.New("tui: calculator is required")
	}
	if cfg.Submitter == nil {
		return Model{}, errors.New("tui: submitter is required")
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = TitleStyle

	m := Model{
		machine:   cfg.Machine,
		calc:      cfg.Calculator,
		submitter: cfg.Submitter,
		store:     cfg.Store,
		saves:     &saver{},
		logger:    logging.OrNop(cfg.Logger),
		taxYear:   cfg.TaxYear,
		inputs:    newInputs(),
		spinner:   sp,
		help:      help.New(),
		keys:      defaultKeyMap(),
		width:     80,
		height:    24,
	}

	if cfg.Resume != nil {
		eff, err := m.machine.Resume(*cfg.Resume)
		if err != nil {
			return Model{}, err
		}
		m.taxYear = cfg.Resume.TaxYear
		m.loadInputs(*cfg.Resume)
		m.pending = tea.Batch(m.effectCmd(eff), m.saveCmd())
		return m, nil
	}

	if m.taxYear.IsZero() {
		return Model{}, errors.New("tui: tax year is required")
	}
	if err := m.machine.StartSubmission(m.taxYear); err != nil {
		return Model{}, err
	}
	m.pending = m.saveCmd()
	return m, nil
}

// Init starts the spinner and runs anything queued by NewModel.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.pending)
}

func newInputs() []textinput.Model {
	inputs := make([]textinput.Model, fieldCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = "£ "
		ti.CharLimit = 14
		ti.Width = 16
		ti.Validate = validateAmount
		switch i {
		case fieldIncome:
			ti.Placeholder = "0.00"
			ti.Focus()
		case fieldExpenses:
			ti.Placeholder = "0.00"
		case fieldDeducted:
			ti.Placeholder = "0.00 (optional)"
		}
		inputs[i] = ti
	}
	return inputs
}

func (m *Model) loadInputs(snap saga.Snapshot) {
	m.inputs[fieldIncome].SetValue(amountValue(snap.Summary.Income))
	m.inputs[fieldExpenses].SetValue(amountValue(snap.Summary.Expenses))
	deducted := ""
	if snap.TaxDeductedAtSource.IsPositive() {
		deducted = snap.TaxDeductedAtSource.StringFixed(2)
	}
	m.inputs[fieldDeducted].SetValue(deducted)
	m.voluntary = snap.VoluntaryClass2
}

func amountValue(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

// validateAmount accepts partial input while typing: digits, commas and at
// most one decimal point.
func validateAmount(s string) error {
	dot := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',':
		case r == '.' && !dot:
			dot = true
		default:
			return fmt.Errorf("invalid character %q", r)
		}
	}
	return nil
}

// parseAmount reads a money field. An empty optional field is zero.
func parseAmount(label, s string, required bool) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		if required {
			return decimal.Zero, fmt.Errorf("%s is required", label)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q is not a valid amount", label, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s cannot be negative", label)
	}
	return d, nil
}

// effectCmd runs a machine effect off the event loop and reports back
// with a message.
func (m Model) effectCmd(eff saga.Effect) tea.Cmd {
	switch e := eff.(type) {
	case saga.CalculateEffect:
		calc := m.calc
		return func() (msg tea.Msg) {
			done := saga.CalculationDone{SagaID: e.SagaID, Attempt: e.Attempt}
			defer func() {
				if r := recover(); r != nil {
					done.Result, done.Err = nil, fmt.Errorf("panic: %v", r)
					msg = calculationDoneMsg{done: done}
				}
			}()
			done.Result, done.Err = calc.CalculateWithOptions(e.NetProfit, e.TaxYear.StartYear, e.Options)
			return calculationDoneMsg{done: done}
		}
	case saga.SubmitEffect:
		submitter := m.submitter
		return func() (msg tea.Msg) {
			done := saga.SubmissionDone{SagaID: e.SagaID, Attempt: e.Attempt}
			defer func() {
				if r := recover(); r != nil {
					done.Outcome, done.Err = saga.Outcome{}, fmt.Errorf("panic: %v", r)
					msg = submissionDoneMsg{done: done}
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), saga.DefaultEffectTimeout)
			defer cancel()
			done.Outcome, done.Err = submitter.Submit(ctx, e.Declaration, e.Result)
			return submissionDoneMsg{done: done}
		}
	}
	return nil
}

// saveCmd persists the current snapshot when a store is configured.
func (m Model) saveCmd() tea.Cmd {
	if m.store == nil || m.machine.ID() == "" {
		return nil
	}
	store, saves, snap := m.store, m.saves, m.machine.Snapshot()
	seq := saves.ticket()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saga.DefaultEffectTimeout)
		defer cancel()
		return savedMsg{id: snap.ID, err: saves.save(ctx, store, snap, seq)}
	}
}

// saver orders store writes. Commands run concurrently, so a write for an
// older transition can arrive after a newer one, or after the submission
// was deleted; either way it is dropped. Tickets are taken on the event
// loop, which makes them follow the order of the transitions.
type saver struct {
	mu      sync.Mutex
	seq     uint64
	last    map[string]uint64
	deleted map[string]bool
}

func (s *saver) ticket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

func (s *saver) save(ctx context.Context, store saga.Store, snap saga.Snapshot, seq uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted[snap.ID] {
		return nil
	}
	if prev, ok := s.last[snap.ID]; ok && seq <= prev {
		return nil
	}
	if err := store.Save(ctx, snap); err != nil {
		return err
	}
	if s.last == nil {
		s.last = make(map[string]uint64)
	}
	s.last[snap.ID] = seq
	return nil
}

func (s *saver) remove(ctx context.Context, store saga.Store, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted == nil {
		s.deleted = make(map[string]bool)
	}
	s.deleted[id] = true
	delete(s.last, id)
	if err := store.Delete(ctx, id); err != nil && !errors.Is(err, saga.ErrNotFound) {
		return err
	}
	return nil
}

func (m Model) deleteCmd(id string) tea.Cmd {
	if m.store == nil || id == "" {
		return nil
	}
	store, saves := m.store, m.saves
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saga.DefaultEffectTimeout)
		defer cancel()
		return deletedMsg{id: id, err: saves.remove(ctx, store, id)}
	}
}

// Snapshot returns the wizard's current submission.
func (m Model) Snapshot() saga.Snapshot {
	return m.machine.Snapshot()
}
