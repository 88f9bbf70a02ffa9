package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "satax %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

// newRootCmd assembles the command tree. Tests build a fresh tree per case
// so flag values never leak between runs.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "satax",
		Short: "UK self-employed Self Assessment calculator",
		Long: `Calculate income tax and National Insurance for a UK self-employed
tax year, confirm the final declaration and submit it to HMRC.

Settings come from the environment or a .env file:
  SATAX_DB_PATH, SATAX_LOG_LEVEL, SATAX_RATES_FILE, SATAX_TOKEN_FILE,
  HMRC_CLIENT_ID, HMRC_CLIENT_SECRET, HMRC_SUBMIT_URL`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides SATAX_LOG_LEVEL")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite database for saved submissions; overrides SATAX_DB_PATH")
	root.PersistentFlags().StringVar(&opts.ratesFile, "rates", "", "YAML rate table; overrides SATAX_RATES_FILE")

	root.AddCommand(calculateCmd(opts))
	root.AddCommand(ratesCmd(opts))
	root.AddCommand(compareCmd(opts))
	root.AddCommand(breakevenCmd(opts))
	root.AddCommand(sweepCmd(opts))
	root.AddCommand(declarationCmd())
	root.AddCommand(submitCmd(opts))
	root.AddCommand(resumeCmd(opts))
	root.AddCommand(listCmd(opts))
	root.AddCommand(cancelCmd(opts))
	root.AddCommand(connectCmd(opts))
	root.AddCommand(statusCmd(opts))
	root.AddCommand(disconnectCmd(opts))
	root.AddCommand(versionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
