package tui

import (
	"github.com/rgehrsitz/satax/internal/saga"
)

// Message types for the Bubble Tea update cycle. Effect results come back
// through Update, so the machine only ever changes on the program's
// event loop.

// calculationDoneMsg carries a finished CalculateEffect.
type calculationDoneMsg struct {
	done saga.CalculationDone
}

// submissionDoneMsg carries a finished SubmitEffect.
type submissionDoneMsg struct {
	done saga.SubmissionDone
}

// savedMsg reports the result of persisting a snapshot.
type savedMsg struct {
	id  string
	err error
}

// deletedMsg reports the result of removing a cancelled submission.
type deletedMsg struct {
	id  string
	err error
}
