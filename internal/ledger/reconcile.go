package ledger

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
	ListPartiesPage(ctx context.Context, afterID string, limit int) ([]domain.Party, error)
	SumTransactions(ctx context.Context, ownerID, partyID string) (domain.Totals, error)
	SwapOutstanding(ctx context.Context, ownerID, id string, prev, next int64, at time.Time) (bool, error)
}

// Reconciler walks every party and repairs outstanding values that drifted
// from their transactions. A repair only lands if the cached value is still
// the one that was read, so it never overwrites a concurrent recompute.
type Reconciler struct {
	store    SweepStore
	clock    clock.Clock
	log      *slog.Logger
	notify   domain.ChangeNotifier
	limiter  *rate.Limiter
	pageSize int
}

// NewReconciler paces the sweep at rps parties per second; rps <= 0 means unpaced.
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
		log:      logger.OrDefault(log).With("component", "ledger_reconciler"),
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
		page, err := r.store.ListPartiesPage(ctx, after, r.pageSize)
		if err != nil {
			return rep, err
		}
		for _, p := range page {
			if err := r.limiter.Wait(ctx); err != nil {
				return rep, err
			}
			rep.Scanned++
			r.check(ctx, p, &rep)
		}
		if len(page) < r.pageSize {
			break
		}
		after = page[len(page)-1].ID
	}
	r.log.Info("ledger sweep finished", "scanned", rep.Scanned, "repaired", rep.Repaired, "skipped", rep.Skipped, "failed", rep.Failed)
	return rep, nil
}

func (r *Reconciler) check(ctx context.Context, p domain.Party, rep *SweepReport) {
	totals, err := r.store.SumTransactions(ctx, p.OwnerID, p.ID)
	if err != nil {
		rep.Failed++
		r.log.Error("sum transactions", "party_id", p.ID, "err", err)
		return
	}
	actual := totals.Outstanding()
	if actual == p.Outstanding {
		return
	}
	ok, err := r.store.SwapOutstanding(ctx, p.OwnerID, p.ID, p.Outstanding, actual, r.clock.Now())
	if err != nil {
		rep.Failed++
		r.log.Error("repair outstanding", "party_id", p.ID, "err", err)
		return
	}
	if !ok {
		// changed since it was read; the writer recomputed it
		rep.Skipped++
		return
	}
	rep.Repaired++
	drift := &domain.ConsistencyDriftError{Entity: "party", ID: p.ID, Field: "outstanding", Cached: p.Outstanding, Actual: actual}
	r.log.Warn("repaired drift", "owner_id", p.OwnerID, "err", drift)
	r.notify.Changed(p.OwnerID)
}
