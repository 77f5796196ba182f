package main

import (
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/ledger"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type app struct {
	v   *viper.Viper
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront session service: carts, checkout and order cancellation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg.Env)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(log)
			a.cfg = cfg
			a.log = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("env", "", "environment name (production enables JSON logs)")
	flags.Bool("in-memory", false, "keep carts, sessions and the ledger in process")
	flags.String("ledger-driver", "", "checkout ledger driver: sqlite or postgres")
	flags.String("migrations", "", "ledger migrations root directory")
	_ = a.v.BindPFlag("APP_ENV", flags.Lookup("env"))
	_ = a.v.BindPFlag("IN_MEMORY", flags.Lookup("in-memory"))
	_ = a.v.BindPFlag("LEDGER_DRIVER", flags.Lookup("ledger-driver"))
	_ = a.v.BindPFlag("MIGRATIONS_PATH", flags.Lookup("migrations"))

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newOutboxCmd(a),
		newAttemptsCmd(a),
	)
	return root
}

// openLedger connects to the checkout ledger and applies its migrations.
func (a *app) openLedger() (*ledger.Repository, error) {
	lc := a.cfg.Ledger
	if a.cfg.InMemory {
		lc.Driver = ledger.DriverSQLite
		lc.DSN = ":memory:"
	}

	repo, err := ledger.NewRepository(&ledger.Credentials{
		Driver:   lc.Driver,
		Path:     lc.DSN,
		Host:     lc.Host,
		Port:     lc.Port,
		User:     lc.User,
		Password: lc.Password,
		DBName:   lc.Name,
	})
	if err != nil {
		return nil, err
	}
	if err := repo.RunMigrations(lc.MigrationsDir()); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}
