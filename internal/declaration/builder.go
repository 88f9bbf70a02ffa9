package declaration

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rgehrsitz/satax/internal/domain"
)

// ErrDeclarationSealed is returned when a completed declaration is modified.
var ErrDeclarationSealed = errors.New("declaration already completed")

// IncompleteDeclarationError lists the confirmations still outstanding.
type IncompleteDeclarationError struct {
	Missing []Key
}

func (e *IncompleteDeclarationError) Error() string {
	names := make([]string, len(e.Missing))
	for i, k := range e.Missing {
		names[i] = string(k)
	}
	return fmt.Sprintf("declaration incomplete: %d of %d confirmations outstanding (%s)",
		len(e.Missing), Count(), strings.Join(names, ", "))
}

// Confirmation is one confirmed statement as it was shown.
type Confirmation struct {
	Key  Key    `json:"key"`
	Text string `json:"text"`
}

// SubmissionDeclaration is the sealed record of all confirmations.
// Treat it as read-only once built.
type SubmissionDeclaration struct {
	ID            string         `json:"id"`
	TaxYear       domain.TaxYear `json:"tax_year"`
	CompletedAt   time.Time      `json:"completed_at"`
	Confirmations []Confirmation `json:"confirmations"`
}

// Builder collects confirmations for one tax year. It is not safe for
// concurrent use; the submission saga owns it.
type Builder struct {
	taxYear   domain.TaxYear
	clock     Clock
	entropy   io.Reader
	confirmed map[Key]bool
	decl      *SubmissionDeclaration
}

// NewBuilder returns an empty builder. A nil clock uses the system clock
// and a nil entropy source uses crypto/rand.
func NewBuilder(taxYear domain.TaxYear, clock Clock, entropy io.Reader) *Builder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Builder{
		taxYear:   taxYear,
		clock:     clock,
		entropy:   entropy,
		confirmed: make(map[Key]bool, Count()),
	}
}

// Restore rebuilds a builder from persisted confirmations and, when the
// declaration had already been sealed, the stored declaration itself.
func Restore(taxYear domain.TaxYear, clock Clock, entropy io.Reader, confirmed []Key, decl *SubmissionDeclaration) (*Builder, error) {
	b := NewBuilder(taxYear, clock, entropy)
	for _, k := range confirmed {
		if !k.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, k)
		}
		b.confirmed[k] = true
	}
	if decl != nil {
		if !b.Complete() {
			return nil, fmt.Errorf("stored declaration %s has %d of %d confirmations", decl.ID, b.Count(), Count())
		}
		b.decl = decl
		return b, nil
	}
	if b.Complete() {
		if err := b.seal(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// TaxYear returns the tax year being declared.
func (b *Builder) TaxYear() domain.TaxYear {
	return b.taxYear
}

// Confirm records key. Confirming the same key twice has no further effect.
// The declaration is created when the last outstanding key is confirmed.
func (b *Builder) Confirm(key Key) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if b.confirmed[key] {
		return nil
	}
	b.confirmed[key] = true
	if b.Complete() {
		if err := b.seal(); err != nil {
			delete(b.confirmed, key)
			return err
		}
	}
	return nil
}

// Revoke withdraws a confirmation. A sealed declaration cannot be changed.
func (b *Builder) Revoke(key Key) error {
	if !key.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if b.decl != nil {
		return ErrDeclarationSealed
	}
	delete(b.confirmed, key)
	return nil
}

// Count returns how many distinct keys are confirmed.
func (b *Builder) Count() int {
	return len(b.confirmed)
}

// IsConfirmed reports whether key has been confirmed.
func (b *Builder) IsConfirmed(key Key) bool {
	return b.confirmed[key]
}

// Confirmed returns the confirmed keys in presentation order.
func (b *Builder) Confirmed() []Key {
	keys := make([]Key, 0, len(b.confirmed))
	for _, k := range orderedKeys {
		if b.confirmed[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// Missing returns the outstanding keys in presentation order.
func (b *Builder) Missing() []Key {
	var keys []Key
	for _, k := range orderedKeys {
		if !b.confirmed[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// Complete reports whether every key is confirmed.
func (b *Builder) Complete() bool {
	return len(b.confirmed) == Count()
}

// Build returns the cached declaration. Repeated calls return the same
// instance with the same ID and timestamp.
func (b *Builder) Build() (*SubmissionDeclaration, error) {
	if b.decl == nil {
		return nil, &IncompleteDeclarationError{Missing: b.Missing()}
	}
	return b.decl, nil
}

func (b *Builder) seal() error {
	now := b.clock.Now().UTC()
	id, err := NewID(now, b.entropy)
	if err != nil {
		return err
	}
	confirmations := make([]Confirmation, len(orderedKeys))
	for i, k := range orderedKeys {
		confirmations[i] = Confirmation{Key: k, Text: k.Text()}
	}
	b.decl = &SubmissionDeclaration{
		ID:            id,
		TaxYear:       b.taxYear,
		CompletedAt:   now,
		Confirmations: confirmations,
	}
	return nil
}
