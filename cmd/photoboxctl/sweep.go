package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/photobox/internal/app"
)

var sweepDays int

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete photo folders past their retention window",
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().IntVar(&sweepDays, "days", 0, "retention window in days (defaults to RETENTION_DAYS)")
}

func runSweep(cmd *cobra.Command, _ []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		days := sweepDays
		if days <= 0 {
			days = a.Retention.RetentionDays()
		}

		res, err := a.Retention.Sweep(cmd.Context(), days, time.Now())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "deleted %d folder(s) older than %d days, %d failed\n", res.Deleted, days, res.Failed)

		if len(res.FailedFolders) > 0 {
			fmt.Fprintf(out, "failed: %s\n", strings.Join(res.FailedFolders, ", "))
		}

		return nil
	})
}
