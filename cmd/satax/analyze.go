package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/satax/internal/breakeven"
	"github.com/rgehrsitz/satax/internal/compare"
	"github.com/rgehrsitz/satax/internal/transform"
)

// scenario builds the base what-if scenario from the shared figure flags.
func (f *figureFlags) scenario() (transform.Scenario, error) {
	taxYear, err := f.taxYear()
	if err != nil {
		return transform.Scenario{}, err
	}
	profit, err := f.netProfit()
	if err != nil {
		return transform.Scenario{}, err
	}
	calcOpts, err := f.options()
	if err != nil {
		return transform.Scenario{}, err
	}
	return transform.Scenario{Name: "base", TaxYear: taxYear, NetProfit: profit, Options: calcOpts}, nil
}

func compareCmd(opts *globalOptions) *cobra.Command {
	var (
		figures       figureFlags
		with          string
		format        string
		listTemplates bool
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a year's liability against what-if alternatives",
		Example: `  satax compare --profit 40000 --with previous_year,profit_down_10pct
  satax compare --profit 5000 --with voluntary_class2 --format csv
  satax compare --list-templates`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listTemplates {
				fmt.Fprint(cmd.OutOrStdout(), transform.GetTemplateHelp(transform.CreateBuiltInTemplates()))
				return nil
			}
			templates := transform.ParseTemplateList(with)
			if len(templates) == 0 {
				return fmt.Errorf("--with is required (see --list-templates)")
			}
			base, err := figures.scenario()
			if err != nil {
				return err
			}

			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			set, err := compare.NewCompareEngine(a.calculator()).Compare(commandContext(cmd), base, templates)
			if err != nil {
				return fmt.Errorf("comparison failed: %w", err)
			}
			a.logger.Debugf("compared %s against %d alternatives", base.TaxYear, len(set.AlternativeResults))

			var out string
			switch strings.ToLower(format) {
			case "csv":
				out, err = (&compare.CSVFormatter{}).Format(set)
			case "json":
				out, err = (&compare.JSONFormatter{Pretty: true}).Format(set)
			case "table", "console", "":
				out = (&compare.TableFormatter{}).Format(set)
			case "compact":
				out = (&compare.TableFormatter{}).FormatCompact(set) + "\n"
			default:
				return fmt.Errorf("unknown output format: %s (valid: table, compact, csv, json)", format)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	figures.register(cmd, true)
	cmd.Flags().StringVar(&with, "with", "", "Comma-separated list of templates to compare")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, compact, csv, json)")
	cmd.Flags().BoolVar(&listTemplates, "list-templates", false, "List all available scenario templates")
	return cmd
}

func breakevenCmd(opts *globalOptions) *cobra.Command {
	var (
		year            string
		target          string
		goal            string
		maxProfit       string
		deducted        string
		voluntaryClass2 bool
		format          string
	)
	cmd := &cobra.Command{
		Use:   "breakeven",
		Short: "Find the profit needed to reach a take-home or liability figure",
		Example: `  satax breakeven --target take_home --goal 30000
  satax breakeven --target liability --goal 5000 --year 2024-25`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			figures := figureFlags{year: year, deducted: deducted, voluntaryClass2: voluntaryClass2}
			taxYear, err := figures.taxYear()
			if err != nil {
				return err
			}
			calcOpts, err := figures.options()
			if err != nil {
				return err
			}
			t, err := breakeven.ParseTarget(target)
			if err != nil {
				return err
			}
			if goal == "" {
				return fmt.Errorf("--goal is required")
			}
			g, err := parseMoney("goal", goal)
			if err != nil {
				return err
			}
			constraints := breakeven.DefaultConstraints()
			if maxProfit != "" {
				m, err := parseMoney("max-profit", maxProfit)
				if err != nil {
					return err
				}
				constraints.MaxProfit = &m
			}

			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := breakeven.NewDefaultSolver(a.calculator()).Optimize(commandContext(cmd), breakeven.OptimizationRequest{
				Base:        transform.Scenario{TaxYear: taxYear, Options: calcOpts},
				Target:      t,
				Goal:        g,
				Constraints: constraints,
			})
			if err != nil {
				return err
			}
			a.logger.Debugf("break-even %s %s solved in %d iterations", t, g, res.Iterations)

			if strings.ToLower(format) == "json" {
				out, err := (&breakeven.JSONFormatter{Pretty: true}).Format(res)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), (&breakeven.TableFormatter{}).Format(res))
			return nil
		},
	}
	cmd.Flags().StringVarP(&year, "year", "y", "", "Tax year, e.g. 2025-26 (default: the last completed tax year)")
	cmd.Flags().StringVar(&target, "target", string(breakeven.TargetTakeHome), "Figure to match (take_home, liability)")
	cmd.Flags().StringVar(&goal, "goal", "", "Amount the target should reach")
	cmd.Flags().StringVar(&maxProfit, "max-profit", "", "Largest profit to search (default 1000000)")
	cmd.Flags().StringVar(&deducted, "deducted", "0", "Tax already deducted at source")
	cmd.Flags().BoolVar(&voluntaryClass2, "voluntary-class2", false, "Pay voluntary Class 2 NI when profits are below the Small Profits Threshold")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	return cmd
}

func sweepCmd(opts *globalOptions) *cobra.Command {
	var (
		year            string
		from, to, step  string
		voluntaryClass2 bool
		format          string
	)
	cmd := &cobra.Command{
		Use:     "sweep",
		Short:   "Show liability and marginal rate across a range of profits",
		Example: `  satax sweep --from 0 --to 150000 --step 10000`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			figures := figureFlags{year: year, deducted: "0", voluntaryClass2: voluntaryClass2}
			taxYear, err := figures.taxYear()
			if err != nil {
				return err
			}
			calcOpts, err := figures.options()
			if err != nil {
				return err
			}
			bounds := make([]decimal.Decimal, 3)
			for i, raw := range []struct{ name, value string }{{"from", from}, {"to", to}, {"step", step}} {
				if bounds[i], err = parseMoney(raw.name, raw.value); err != nil {
					return err
				}
			}

			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			points, err := breakeven.NewDefaultSolver(a.calculator()).Sweep(commandContext(cmd),
				breakeven.OptimizationRequest{Base: transform.Scenario{TaxYear: taxYear, Options: calcOpts}},
				bounds[0], bounds[1], bounds[2])
			if err != nil {
				return err
			}

			if strings.ToLower(format) == "json" {
				out, err := (&breakeven.JSONFormatter{Pretty: true}).FormatSweep(points)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tax year %s\n", taxYear.Label())
			fmt.Fprint(cmd.OutOrStdout(), (&breakeven.TableFormatter{}).FormatSweep(points))
			return nil
		},
	}
	cmd.Flags().StringVarP(&year, "year", "y", "", "Tax year, e.g. 2025-26 (default: the last completed tax year)")
	cmd.Flags().StringVar(&from, "from", "0", "Lowest profit")
	cmd.Flags().StringVar(&to, "to", "150000", "Highest profit")
	cmd.Flags().StringVar(&step, "step", "10000", "Profit increment")
	cmd.Flags().BoolVar(&voluntaryClass2, "voluntary-class2", false, "Pay voluntary Class 2 NI when profits are below the Small Profits Threshold")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table, json)")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
