package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/config"
	"github.com/rgehrsitz/satax/internal/domain"
	"github.com/rgehrsitz/satax/internal/hmrc"
	"github.com/rgehrsitz/satax/internal/logging"
	"github.com/rgehrsitz/satax/internal/saga"
	"github.com/rgehrsitz/satax/internal/store"
	"github.com/rgehrsitz/satax/internal/tui"
)

type options struct {
	envFile  string
	year     string
	resumeID string
	logFile  string
}

func main() {
	opts := &options{}
	root := &cobra.Command{
		Use:          "satax-tui",
		Short:        "Interactive Self Assessment submission wizard",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}
	root.Flags().StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file")
	root.Flags().StringVarP(&opts.year, "year", "y", "", "Tax year, e.g. 2025-26 (default: the last completed tax year)")
	root.Flags().StringVar(&opts.resumeID, "resume", "", "Continue a saved submission")
	root.Flags().StringVar(&opts.logFile, "log-file", "satax-tui.log", "Where to write logs")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadAppConfig(opts.envFile)
	if err != nil {
		return err
	}
	logger, err := logging.NewZapTo(cfg.LogLevel, opts.logFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	rates, err := config.LoadRateTable(cfg.RatesFile)
	if err != nil {
		return err
	}

	st, err := store.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open submissions database %s: %w", cfg.DBPath, err)
	}
	defer st.Close()

	taxYear := domain.CurrentTaxYear(time.Now).Previous()
	if opts.year != "" {
		if taxYear, err = domain.ParseTaxYear(opts.year); err != nil {
			return err
		}
	}

	var resume *saga.Snapshot
	if opts.resumeID != "" {
		snap, err := st.Load(ctx, opts.resumeID)
		if err != nil {
			return fmt.Errorf("cannot resume %s: %w", opts.resumeID, err)
		}
		resume = &snap
	}

	oauth := hmrc.NewOAuthService(cfg.HMRC, hmrc.NewFileTokenStorage(cfg.TokenFile), logger)
	model, err := tui.NewModel(tui.Config{
		Machine:    saga.NewMachine(saga.MachineConfig{}),
		Calculator: calculation.NewTaxLiabilityCalculator(rates),
		Submitter:  hmrc.NewClient(cfg.HMRC.SubmitURL, oauth, logger),
		Store:      st,
		Logger:     logger,
		TaxYear:    taxYear,
		Resume:     resume,
	})
	if err != nil {
		return err
	}
	logger.Infof("wizard started for %s", taxYear)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	if m, ok := final.(tui.Model); ok {
		snap := m.Snapshot()
		if snap.Active() && snap.State != saga.StateSubmitted {
			fmt.Printf("Submission %s saved in state %s. Resume with: satax-tui --resume %s\n", snap.ID, snap.State, snap.ID)
		}
	}
	return nil
}
