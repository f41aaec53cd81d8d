package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/photobox/internal/app"
)

var expireCmd = &cobra.Command{
	Use:   "expire-pending",
	Short: "Expire pending transactions whose QR code has lapsed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			res, err := a.Transactions.ExpireStale(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "expired %d, settled %d, skipped %d\n", res.Expired, res.Settled, res.Skipped)

			return nil
		})
	},
}
