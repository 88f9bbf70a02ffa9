package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/satax/internal/hmrc"
	"github.com/rgehrsitz/satax/internal/saga"
)

func connectCmd(opts *globalOptions) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Authorise satax to submit returns to your HMRC account",
		Long: `Prints the HMRC authorisation page. Sign in there, grant access and paste
the authorisation code back here. The token is stored in SATAX_TOKEN_FILE
and refreshed automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			if a.cfg.HMRC.ClientID == "" {
				return errors.New("HMRC_CLIENT_ID is not set")
			}

			svc := a.oauth()
			out := cmd.OutOrStdout()
			if code == "" {
				fmt.Fprintf(out, "Open this page and grant access:\n\n  %s\n\n", svc.AuthCodeURL(uuid.NewString()))
				fmt.Fprint(out, "Authorisation code: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && strings.TrimSpace(line) == "" {
					return fmt.Errorf("no authorisation code entered: %w", err)
				}
				code = strings.TrimSpace(line)
			}

			ctx := commandContext(cmd)
			tok, err := svc.Authenticate(ctx, code)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Connected to HMRC. Access expires %s.\n", tok.Expiry.Local().Format("2 Jan 2006 15:04"))
			return nil
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "Authorisation code, if you already have one")
	return cmd
}

func statusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the HMRC connection and any unfinished submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			status := a.oauth().Status()
			fmt.Fprintf(out, "HMRC connection: %s\n", status)
			if status == hmrc.Expired {
				fmt.Fprintln(out, "  The access token will be refreshed on the next submission.")
			}

			ctx := commandContext(cmd)
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			snaps, err := st.List(ctx)
			if err != nil {
				return err
			}
			unfinished := 0
			for _, s := range snaps {
				if s.State != saga.StateSubmitted {
					unfinished++
				}
			}
			fmt.Fprintf(out, "Saved submissions: %d (%d unfinished)\n", len(snaps), unfinished)
			return nil
		},
	}
}

func disconnectCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the stored HMRC token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts)
			if err != nil {
				return err
			}
			defer a.close()
			if err := a.oauth().Disconnect(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected from HMRC.")
			return nil
		},
	}
}
