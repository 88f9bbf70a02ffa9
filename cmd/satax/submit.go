package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/satax/internal/declaration"
	"github.com/rgehrsitz/satax/internal/hmrc"
	"github.com/rgehrsitz/satax/internal/output"
	"github.com/rgehrsitz/satax/internal/saga"
)

// errDeclined stops a submission the user chose not to confirm. The saga
// stays saved and can be resumed.
var errDeclined = errors.New("declaration not confirmed")

// driver walks a workflow from whatever state it is in to a final answer,
// prompting on the command's input where the user has to agree.
type driver struct {
	wf    *saga.Workflow
	in    *bufio.Reader
	out   io.Writer
	yes   bool
	retry bool
}

func newDriver(cmd *cobra.Command, wf *saga.Workflow, yes, retry bool) *driver {
	return &driver{wf: wf, in: bufio.NewReader(cmd.InOrStdin()), out: cmd.OutOrStdout(), yes: yes, retry: retry}
}

func (d *driver) run(ctx context.Context) error {
	for {
		snap, err := d.wf.Snapshot(ctx)
		if err != nil {
			return err
		}
		switch snap.State {
		case saga.StateInitiated:
			if snap.Failure != "" {
				return fmt.Errorf("calculation failed: %s", snap.Failure)
			}
			if err := d.wf.ExecuteNextStep(ctx); err != nil {
				return err
			}
		case saga.StateCalculating:
			if _, err := d.wf.Wait(ctx, saga.StateCalculated, saga.StateInitiated); err != nil {
				return err
			}
		case saga.StateCalculated:
			if err := d.declare(ctx, snap); err != nil {
				return err
			}
		case saga.StateDeclaring:
			fmt.Fprintln(d.out, "Submitting to HMRC...")
			if _, err := d.wf.Wait(ctx, saga.StateSubmitted, saga.StateFailed); err != nil {
				return err
			}
		case saga.StateFailed:
			fmt.Fprint(d.out, output.FormatSnapshot(snap))
			again := d.retry
			if !again {
				again, err = d.ask("Retry the submission with the same declaration?")
				if err != nil {
					return err
				}
			}
			if !again {
				return fmt.Errorf("submission %s failed: %s", snap.ID, snap.Failure)
			}
			if err := d.wf.Retry(ctx); err != nil {
				return err
			}
		case saga.StateSubmitted:
			fmt.Fprintf(d.out, "Submitted. HMRC reference %s\n", snap.Reference)
			fmt.Fprint(d.out, output.FormatSnapshot(snap))
			return nil
		default:
			return fmt.Errorf("no submission in progress")
		}
	}
}

// declare shows the calculation, collects every confirmation and submits.
func (d *driver) declare(ctx context.Context, snap saga.Snapshot) error {
	if snap.Step < saga.StepDeclare && snap.Result != nil {
		report, err := output.ConsoleFormatter{}.Format(snap.Result)
		if err != nil {
			return err
		}
		fmt.Fprint(d.out, string(report))
		if err := d.wf.ExecuteNextStep(ctx); err != nil {
			return err
		}
	}

	confirmed := make(map[declaration.Key]bool, len(snap.Confirmed))
	for _, k := range snap.Confirmed {
		confirmed[k] = true
	}
	if len(confirmed) < declaration.Count() {
		fmt.Fprintln(d.out, "\nFinal declaration")
	}
	for i, k := range declaration.Keys() {
		if confirmed[k] {
			continue
		}
		fmt.Fprintf(d.out, "\n%d. %s\n", i+1, k.Text())
		ok := d.yes
		if !ok {
			var err error
			if ok, err = d.ask("Do you confirm this statement?"); err != nil {
				return err
			}
		}
		if !ok {
			fmt.Fprintf(d.out, "\nSubmission %s saved. Run `satax resume %s` when you are ready.\n", snap.ID, snap.ID)
			return errDeclined
		}
		if err := d.wf.ConfirmDeclaration(ctx, k); err != nil {
			return err
		}
	}

	can, err := d.wf.CanSubmit(ctx)
	if err != nil {
		return err
	}
	if !can {
		return errors.New("declaration is not complete")
	}
	return d.wf.ConfirmAndSubmit(ctx)
}

// ask reads a yes/no answer. End of input counts as no.
func (d *driver) ask(question string) (bool, error) {
	fmt.Fprintf(d.out, "%s [y/N]: ", question)
	line, err := d.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// withWorkflow opens the store, starts a workflow backed by HMRC and runs fn.
func withWorkflow(cmd *cobra.Command, opts *globalOptions, fn func(ctx context.Context, a *app, wf *saga.Workflow) error) error {
	a, err := loadApp(opts)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := commandContext(cmd)
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	wf, stop, err := a.startWorkflow(ctx, st, a.submitter())
	if err != nil {
		return err
	}
	defer stop()
	return fn(ctx, a, wf)
}

func submitCmd(opts *globalOptions) *cobra.Command {
	var (
		figures figureFlags
		yes     bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Calculate, confirm the declaration and submit a return to HMRC",
		Example: `  satax submit --year 2025-26 --income 52000 --expenses 12000
  satax submit --year 2025-26 --income 52000 --expenses 12000 --deducted 800 --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			taxYear, err := figures.taxYear()
			if err != nil {
				return err
			}
			summary, err := figures.summary()
			if err != nil {
				return err
			}
			calcOpts, err := figures.options()
			if err != nil {
				return err
			}

			return withWorkflow(cmd, opts, func(ctx context.Context, a *app, wf *saga.Workflow) error {
				if status := a.oauth().Status(); status == hmrc.Disconnected {
					return fmt.Errorf("%w: run `satax connect` first", hmrc.ErrNotConnected)
				}
				snap, err := wf.Start(ctx, taxYear)
				if err != nil {
					return err
				}
				a.logger.Infof("started submission %s for %s", snap.ID, taxYear)
				fmt.Fprintf(cmd.OutOrStdout(), "Submission %s for %s\n\n", snap.ID, taxYear.Label())

				if err := wf.SetFinancialSummary(ctx, summary); err != nil {
					return err
				}
				if err := wf.SetCalculationOptions(ctx, calcOpts); err != nil {
					return err
				}
				return declinedIsNotAnError(newDriver(cmd, wf, yes, false).run(ctx))
			})
		},
	}
	figures.register(cmd, false)
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm every declaration statement without prompting")
	return cmd
}

func resumeCmd(opts *globalOptions) *cobra.Command {
	var yes, retry bool
	cmd := &cobra.Command{
		Use:   "resume <submission-id>",
		Short: "Continue a saved submission from where it stopped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkflow(cmd, opts, func(ctx context.Context, a *app, wf *saga.Workflow) error {
				snap, err := wf.Resume(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), output.FormatSnapshot(snap))
				return declinedIsNotAnError(newDriver(cmd, wf, yes, retry).run(ctx))
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm remaining declaration statements without prompting")
	cmd.Flags().BoolVar(&retry, "retry", false, "Retry a failed submission without prompting")
	return cmd
}

func declinedIsNotAnError(err error) error {
	if errors.Is(err, errDeclined) {
		return nil
	}
	return err
}

func listCmd(opts *globalOptions) *cobra.Command {
	var state string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := commandContext(cmd)
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var snaps []saga.Snapshot
			if state == "" {
				snaps, err = st.List(ctx)
			} else {
				var s saga.State
				if s, err = saga.ParseState(state); err != nil {
					return err
				}
				snaps, err = st.ListByState(ctx, s)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), output.FormatSnapshotList(snaps))
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "Only show submissions in this state (e.g. CALCULATED, FAILED)")
	return cmd
}

func cancelCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <submission-id>",
		Short: "Discard a saved submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkflow(cmd, opts, func(ctx context.Context, a *app, wf *saga.Workflow) error {
				if _, err := wf.Resume(ctx, args[0]); err != nil {
					return err
				}
				if err := wf.Cancel(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submission %s cancelled.\n", args[0])
				return nil
			})
		},
	}
}
