package main

import (
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/spf13/cobra"
)

func newOutboxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and publish journaled checkout events",
	}

	drain := &cobra.Command{
		Use:   "drain",
		Short: "Publish every pending outbox event once and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(a.cfg.KafkaBrokers) == 0 {
				return errors.New("KAFKA_BROKERS is required to drain the outbox")
			}
			repo, err := a.openLedger()
			if err != nil {
				return err
			}
			defer repo.Close()

			writer := publisher.NewKafkaWriter(a.cfg.KafkaTopic, a.cfg.KafkaBrokers...)
			defer writer.Close()

			n, err := publisher.NewOutboxPoller(repo, writer, a.log).Drain(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "published %d event(s) to %s\n", n, writer.Topic)
			return err
		},
	}
	drain.Flags().StringSlice("brokers", nil, "Kafka brokers, overrides KAFKA_BROKERS")
	drain.PreRun = func(cmd *cobra.Command, _ []string) {
		if brokers, _ := cmd.Flags().GetStringSlice("brokers"); len(brokers) > 0 {
			a.cfg.KafkaBrokers = brokers
		}
	}

	cmd.AddCommand(drain)
	return cmd
}
