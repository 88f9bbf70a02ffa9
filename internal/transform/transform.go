package transform

import (
	"errors"
	"fmt"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/shopspring/decimal"
)

// Scenario is one set of figures that can be priced by the calculator.
// Scenarios are values; transforms return modified copies.
type Scenario struct {
	Name      string              `json:"name"`
	TaxYear   domain.TaxYear      `json:"tax_year"`
	NetProfit decimal.Decimal     `json:"net_profit"`
	Options   calculation.Options `json:"-"`
}

// Validate reports whether the scenario can be calculated.
func (s Scenario) Validate() error {
	if s.TaxYear.IsZero() {
		return errors.New("scenario has no tax year")
	}
	if s.Options.TaxDeductedAtSource.IsNegative() {
		return calculation.ErrNegativeDeduction
	}
	return nil
}

// ScenarioTransform defines the interface for all scenario transformations.
// Transforms are composable: comparison and break-even analysis build their
// alternatives by applying them to a base scenario.
type ScenarioTransform interface {
	// Apply returns a modified copy of base.
	Apply(base Scenario) (Scenario, error)

	// Name returns a short identifier, e.g. "shift_tax_year".
	Name() string

	// Description returns a human-readable summary of the change.
	Description() string

	// Validate checks the transform parameters against base without applying them.
	Validate(base Scenario) error
}

// ApplyTransforms applies transforms in order, each receiving the output of
// the previous one. With no transforms the base is returned unchanged.
func ApplyTransforms(base Scenario, transforms []ScenarioTransform) (Scenario, error) {
	if err := base.Validate(); err != nil {
		return Scenario{}, err
	}

	current := base
	for i, t := range transforms {
		if t == nil {
			return Scenario{}, fmt.Errorf("transform at index %d is nil", i)
		}
		if err := t.Validate(current); err != nil {
			return Scenario{}, fmt.Errorf("transform %s validation failed: %w", t.Name(), err)
		}
		next, err := t.Apply(current)
		if err != nil {
			return Scenario{}, fmt.Errorf("transform %s failed: %w", t.Name(), err)
		}
		current = next
	}
	return current, nil
}

// TransformError represents an error that occurred during transformation.
type TransformError struct {
	TransformName string
	Operation     string
	Reason        string
	Err           error
}

func (e *TransformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transform %s (%s): %s: %v", e.TransformName, e.Operation, e.Reason, e.Err)
	}
	return fmt.Sprintf("transform %s (%s): %s", e.TransformName, e.Operation, e.Reason)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
