package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply checkout ledger migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := a.openLedger()
			if err != nil {
				return err
			}
			defer repo.Close()

			a.log.Info("ledger migrations applied",
				zap.String("driver", a.cfg.Ledger.Driver),
				zap.String("path", a.cfg.Ledger.MigrationsDir()))
			return nil
		},
	}
}
