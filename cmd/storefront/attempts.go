package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/spf13/cobra"
)

func newAttemptsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attempts",
		Short: "Inspect the checkout ledger",
	}

	var (
		state string
		limit int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the most recent checkout attempts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.openLedger()
			if err != nil {
				return err
			}
			defer repo.Close()

			attempts, err := repo.ListAttempts(cmd.Context(), domain.CheckoutState(state), limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCART\tMETHOD\tSTATE\tTOTAL\tPAYMENT REF\tORDER\tFAILURE\tUPDATED")
			for _, at := range attempts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					at.ID, at.CartID, at.Method, at.State, at.Total,
					at.PaymentRef, at.OrderID, at.Failure, at.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&state, "state", "", "only attempts in this state, e.g. ProviderConfirming")
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of attempts")

	cmd.AddCommand(list)
	return cmd
}
