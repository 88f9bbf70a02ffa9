package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/saga"
)

// FormatSnapshot renders the status of one submission.
func FormatSnapshot(s saga.Snapshot) string {
	if !s.Active() {
		return "No submission in progress.\n"
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Submission %s\n", s.ID)
	fmt.Fprintf(&buf, "  Tax year:     %s\n", s.TaxYear.Label())
	fmt.Fprintf(&buf, "  State:        %s\n", s.State)
	fmt.Fprintf(&buf, "  Step:         %d of %d (%s)\n", int(s.Step), saga.StepCount, s.Step.Title())
	if s.Summary.Complete() {
		fmt.Fprintf(&buf, "  Income:       %s\n", FormatCurrency(*s.Summary.Income))
		fmt.Fprintf(&buf, "  Expenses:     %s\n", FormatCurrency(*s.Summary.Expenses))
		fmt.Fprintf(&buf, "  Net profit:   %s\n", FormatCurrency(s.Summary.NetProfit()))
	}
	if s.Result != nil {
		fmt.Fprintf(&buf, "  Liability:    %s\n", FormatCurrency(s.Result.TotalLiability))
	}
	fmt.Fprintf(&buf, "  Declaration:  %d of %d confirmed\n", len(s.Confirmed), declaration.Count())
	if s.Declaration != nil {
		fmt.Fprintf(&buf, "  Declaration:  %s\n", s.Declaration.ID)
	}
	if s.Reference != "" {
		fmt.Fprintf(&buf, "  Reference:    %s\n", s.Reference)
	}
	if s.Failure != "" {
		fmt.Fprintf(&buf, "  Problem:      %s\n", s.Failure)
	}
	return buf.String()
}

// FormatSnapshotList renders stored submissions as a table.
func FormatSnapshotList(snaps []saga.Snapshot) string {
	if len(snaps) == 0 {
		return "No saved submissions.\n"
	}
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTAX YEAR\tSTATE\tUPDATED\tREFERENCE")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.ID, s.TaxYear.Label(), s.State, s.UpdatedAt.Format("2006-01-02 15:04"), s.Reference)
	}
	tw.Flush()
	return buf.String()
}
