package main

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/satax/internal/calculation"
	"github.com/rgehrsitz/satax/internal/config"
	"github.com/rgehrsitz/satax/internal/hmrc"
	"github.com/rgehrsitz/satax/internal/logging"
	"github.com/rgehrsitz/satax/internal/saga"
	"github.com/rgehrsitz/satax/internal/store"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	envFile   string
	logLevel  string
	dbPath    string
	ratesFile string
}

// app holds the collaborators a command needs, built from configuration.
type app struct {
	cfg    config.AppConfig
	logger *logging.ZapLogger
	rates  *config.RateTable
}

func loadApp(opts *globalOptions) (*app, error) {
	cfg, err := config.LoadAppConfig(opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.ratesFile != "" {
		cfg.RatesFile = opts.ratesFile
	}

	logger, err := logging.NewZap(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	rates, err := config.LoadRateTable(cfg.RatesFile)
	if err != nil {
		return nil, err
	}
	logger.Debugf("loaded rates for tax years %v", rates.Years())
	return &app{cfg: cfg, logger: logger, rates: rates}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func (a *app) calculator() *calculation.TaxLiabilityCalculator {
	return calculation.NewTaxLiabilityCalculator(a.rates)
}

func (a *app) openStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open submissions database %s: %w", a.cfg.DBPath, err)
	}
	return st, nil
}

func (a *app) oauth() *hmrc.OAuthService {
	return hmrc.NewOAuthService(a.cfg.HMRC, hmrc.NewFileTokenStorage(a.cfg.TokenFile), a.logger)
}

func (a *app) submitter() *hmrc.Client {
	return hmrc.NewClient(a.cfg.HMRC.SubmitURL, a.oauth(), a.logger)
}

// startWorkflow runs a workflow over st until the returned stop is called.
func (a *app) startWorkflow(ctx context.Context, st saga.Store, submitter saga.Submitter) (*saga.Workflow, func(), error) {
	wf, err := saga.NewWorkflow(saga.WorkflowConfig{
		Calculator:    a.calculator(),
		Submitter:     submitter,
		Store:         st,
		Logger:        a.logger,
		EffectTimeout: 2 * a.cfg.HMRC.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := wf.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Errorf("submission workflow stopped: %v", err)
		}
	}()
	stop := func() {
		cancel()
		<-done
	}
	return wf, stop, nil
}
