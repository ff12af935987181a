// Command reconcile runs the budget sweep and both aggregate reconcilers once
// and exits non-zero if any of them failed. Meant for cron or a manual repair.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ishantswami13-crypto/vantro-khata/internal/budget"
	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/config"
	"github.com/ishantswami13-crypto/vantro-khata/internal/income"
	"github.com/ishantswami13-crypto/vantro-khata/internal/jobs"
	"github.com/ishantswami13-crypto/vantro-khata/internal/ledger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/store/sqlstore"
)

func main() {
	configPath := flag.String("config", "config.yaml", "optional config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	clk := clock.RealClock{}
	scheduler := budget.NewScheduler(st, clk, lg, nil)
	ledgerRec := ledger.NewReconciler(st, clk, lg, nil, cfg.ReconcileRPS)
	incomeRec := income.NewReconciler(st, clk, lg, nil, cfg.ReconcileRPS)

	err = jobs.RunAll(ctx, lg,
		jobs.Task{Name: "budget_sweep", Run: func(ctx context.Context) error {
			rep, err := scheduler.Sweep(ctx)
			lg.Info("budget sweep", "due", rep.Due, "completed", rep.Completed, "skipped", rep.Skipped, "failed", rep.Failed)
			return err
		}},
		jobs.Task{Name: "ledger_reconcile", Run: func(ctx context.Context) error {
			_, err := ledgerRec.Sweep(ctx)
			return err
		}},
		jobs.Task{Name: "income_reconcile", Run: func(ctx context.Context) error {
			_, err := incomeRec.Sweep(ctx)
			return err
		}},
	)
	if err != nil {
		lg.Error("reconcile finished with errors", "err", err)
		st.Close()
		os.Exit(1)
	}
	lg.Info("reconcile finished")
}
