package saga

import (
	"fmt"
	"strings"
)

// State is the lifecycle position of a submission.
type State int

const (
	StateNone State = iota
	StateInitiated
	StateCalculating
	StateCalculated
	StateDeclaring
	StateSubmitted
	StateFailed
)

var stateNames = map[State]string{
	StateNone:        "NONE",
	StateInitiated:   "INITIATED",
	StateCalculating: "CALCULATING",
	StateCalculated:  "CALCULATED",
	StateDeclaring:   "DECLARING",
	StateSubmitted:   "SUBMITTED",
	StateFailed:      "FAILED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal reports whether no further transition happens without user action.
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateFailed
}

// InFlight reports whether an external operation is outstanding.
func (s State) InFlight() bool {
	return s == StateCalculating || s == StateDeclaring
}

// ParseState converts a state name back to a State.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return StateNone, fmt.Errorf("unknown submission state %q", name)
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Step is the wizard page a submission is on.
type Step int

const (
	StepNone Step = iota
	StepReview
	StepCalculate
	StepReviewCalculation
	StepDeclare
)

var stepTitles = map[Step]string{
	StepNone:              "Not started",
	StepReview:            "Review",
	StepCalculate:         "Calculate",
	StepReviewCalculation: "Review Calculation",
	StepDeclare:           "Declare & Submit",
}

// Title returns the label shown for the step.
func (s Step) Title() string {
	if title, ok := stepTitles[s]; ok {
		return title
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

func (s Step) String() string {
	return s.Title()
}

// StepCount is the number of wizard pages.
const StepCount = 4
