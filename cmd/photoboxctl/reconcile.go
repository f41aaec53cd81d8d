package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrJamesThe3rd/photobox/internal/app"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <external_id>",
	Short: "Ask the payment provider for a transaction's status and apply it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			res, err := a.Transactions.Reconcile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			state := "unchanged"
			if res.Applied {
				state = "updated"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", res.ExternalID, res.Status, state)

			return nil
		})
	},
}
