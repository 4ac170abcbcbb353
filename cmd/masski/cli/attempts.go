package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/model"
	"github.com/Qodebyte-Pro-Services/masski-management-pos-system-sub000/internal/store"
)

func newAttemptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attempts",
		Short: "Inspect and clean up login attempts",
	}

	cmd.AddCommand(newAttemptsPendingCmd())
	cmd.AddCommand(newAttemptsSweepCmd())

	return cmd
}

func newAttemptsPendingCmd() *cobra.Command {
	var (
		adminID    int64
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List login attempts waiting for device approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			var f store.PendingFilter
			if adminID > 0 {
				f.AdminID = &adminID
			}
			attempts, err := st.ListPendingAttempts(cmd.Context(), f)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(attempts)
			}
			return printAttempts(os.Stdout, attempts)
		},
	}

	cmd.Flags().Int64Var(&adminID, "admin-id", 0, "Only show attempts for this admin")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newAttemptsSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Fail stale login attempts and delete expired codes now",
		Long:  "Run one pass of the sweeper that serve runs in the background.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := cfg.Logging.NewLogger(os.Stderr)
			a, err := buildApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.sweeper.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Marked %d stale login attempts failed, deleted %d expired codes\n", res.Attempts, res.OTPs)
			return nil
		},
	}
}

func printAttempts(w io.Writer, attempts []model.LoginAttempt) error {
	if len(attempts) == 0 {
		fmt.Fprintln(w, "No pending login attempts.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tDEVICE\tLOCATION\tSTATUS\tCREATED")
	for _, a := range attempts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Email, a.DeviceID, a.Location, a.Status, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
