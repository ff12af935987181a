package income

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
)

type SweepStore interface {
	ListConnectedIncomesPage(ctx context.Context, afterID string, limit int) ([]domain.Income, error)
	SumLinkedExpenses(ctx context.Context, ownerID, incomeID string) (int64, error)
	SwapIncomeAmount(ctx context.Context, ownerID, id string, prev, next int64, at time.Time) (bool, error)
}

// Reconciler repairs connected incomes whose remaining balance no longer
// matches original minus linked expenses, e.g. after a crash between an
// expense write and its income recompute.
type Reconciler struct {
	store    SweepStore
	clock    clock.Clock
	log      *slog.Logger
	notify   domain.ChangeNotifier
	limiter  *rate.Limiter
	pageSize int
}

func NewReconciler(store SweepStore, clk clock.Clock, log *slog.Logger, notify domain.ChangeNotifier, rps float64) *Reconciler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if notify == nil {
		notify = domain.NopNotifier{}
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
	return &Reconciler{
		store:    store,
		clock:    clk,
		log:      logger.OrDefault(log).With("component", "income_reconciler"),
		notify:   notify,
		limiter:  lim,
		pageSize: 200,
	}
}

type SweepReport struct {
	Scanned  int `json:"scanned"`
	Repaired int `json:"repaired"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func (r *Reconciler) Sweep(ctx context.Context) (SweepReport, error) {
	var (
		rep   SweepReport
		after string
	)
	for {
		page, err := r.store.ListConnectedIncomesPage(ctx, after, r.pageSize)
		if err != nil {
			return rep, err
		}
		for _, inc := range page {
			if err := r.limiter.Wait(ctx); err != nil {
				return rep, err
			}
			rep.Scanned++

			linked, err := r.store.SumLinkedExpenses(ctx, inc.OwnerID, inc.ID)
			if err != nil {
				rep.Failed++
				r.log.Error("sum linked expenses", "income_id", inc.ID, "err", err)
				continue
			}
			actual := inc.OriginalAmount - linked
			if actual == inc.Amount {
				continue
			}
			ok, err := r.store.SwapIncomeAmount(ctx, inc.OwnerID, inc.ID, inc.Amount, actual, r.clock.Now())
			switch {
			case err != nil:
				rep.Failed++
				r.log.Error("repair remaining", "income_id", inc.ID, "err", err)
			case !ok:
				rep.Skipped++
			default:
				rep.Repaired++
				drift := &domain.ConsistencyDriftError{Entity: "income", ID: inc.ID, Field: "amount", Cached: inc.Amount, Actual: actual}
				r.log.Warn("repaired drift", "owner_id", inc.OwnerID, "err", drift)
				r.notify.Changed(inc.OwnerID)
			}
		}
		if len(page) < r.pageSize {
			break
		}
		after = page[len(page)-1].ID
	}
	r.log.Info("income sweep finished", "scanned", rep.Scanned, "repaired", rep.Repaired, "skipped", rep.Skipped, "failed", rep.Failed)
	return rep, nil
}
