package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/vantro-khata/internal/analytics"
	"github.com/ishantswami13-crypto/vantro-khata/internal/auth"
	"github.com/ishantswami13-crypto/vantro-khata/internal/budget"
	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/config"
	"github.com/ishantswami13-crypto/vantro-khata/internal/expense"
	apphttp "github.com/ishantswami13-crypto/vantro-khata/internal/http"
	"github.com/ishantswami13-crypto/vantro-khata/internal/income"
	"github.com/ishantswami13-crypto/vantro-khata/internal/jobs"
	"github.com/ishantswami13-crypto/vantro-khata/internal/ledger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/reports"
	"github.com/ishantswami13-crypto/vantro-khata/internal/router"
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
		lg.Error("open store", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = st.Migrate(migrateCtx)
	cancel()
	if err != nil {
		lg.Error("migrate", "err", err)
		os.Exit(1)
	}

	clk := clock.RealClock{}
	agg := analytics.NewAggregator(st, clk, lg, cfg.AnalyticsCacheTTL)

	ledgerEngine := ledger.NewEngine(st, clk, lg, agg)
	budgets := budget.NewLedger(st, clk, lg, agg)
	scheduler := budget.NewScheduler(st, clk, lg, agg)
	links := income.NewLinkEngine(st, clk, lg)
	incomes := income.NewService(st, links, clk, lg, agg)
	expenses := expense.NewService(st, budgets, links, clk, lg, agg)

	ledgerRec := ledger.NewReconciler(st, clk, lg, agg, cfg.ReconcileRPS)
	incomeRec := income.NewReconciler(st, clk, lg, agg, cfg.ReconcileRPS)

	app := fiber.New(fiber.Config{
		ErrorHandler: apphttp.ErrorHandler,
		BodyLimit:    1 << 20,
	})
	app.Use(router.CorsMiddleware(cfg.CORSOrigin))
	app.Use(requestLogger(lg))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := st.DB.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})

	secret := []byte(cfg.JWTSecret)
	r := &router.Router{
		LedgerHandler:    ledger.NewHandler(ledgerEngine),
		BudgetHandler:    budget.NewHandler(budgets, scheduler),
		ExpenseHandler:   expense.NewHandler(expenses),
		IncomeHandler:    income.NewHandler(incomes),
		AnalyticsHandler: analytics.NewHandler(agg),
		ReportsHandler:   reports.NewHandler(ledgerEngine, expenses, agg, clk),
		AuthMW:           auth.Middleware(secret),
		WriteLimitMW:     router.RateLimitWrite(cfg.RateLimitWriteMax),
	}
	if cfg.IsDev() {
		r.DevTokenHandler = auth.DevTokenHandler(secret)
		lg.Warn("dev token endpoint enabled at /dev/token")
	}
	r.RegisterRoutes(app)

	runner := jobs.NewRunner(lg)
	runner.Add(jobs.Task{Name: "budget_sweep", Interval: cfg.SweepInterval, Run: func(ctx context.Context) error {
		_, err := scheduler.Sweep(ctx)
		return err
	}})
	runner.Add(jobs.Task{Name: "ledger_reconcile", Interval: cfg.ReconcileInterval, Run: func(ctx context.Context) error {
		_, err := ledgerRec.Sweep(ctx)
		return err
	}})
	runner.Add(jobs.Task{Name: "income_reconcile", Interval: cfg.ReconcileInterval, Run: func(ctx context.Context) error {
		_, err := incomeRec.Sweep(ctx)
		return err
	}})
	runner.Start(ctx)

	go func() {
		<-ctx.Done()
		lg.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			lg.Error("shutdown", "err", err)
		}
	}()

	lg.Info("listening", "port", cfg.Port, "db_driver", cfg.DBDriver)
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Error("listen", "err", err)
	}
	stop()
	runner.Wait()
}

func requestLogger(lg *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		lg.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", time.Since(start).String(),
		)
		return err
	}
}
