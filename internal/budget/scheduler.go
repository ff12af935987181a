package budget

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
)

type SweepStore interface {
	ListDueBudgets(ctx context.Context, now time.Time, limit int) ([]domain.Budget, error)
	SumBudgetExpenses(ctx context.Context, ownerID, budgetID string) (int64, error)
	TransitionBudget(ctx context.Context, ownerID, id string, from, to domain.BudgetStatus, spent int64, at time.Time) (bool, error)
}

// Scheduler completes running budgets whose end date has passed. Over-budget
// alone never completes a budget.
type Scheduler struct {
	store     SweepStore
	clock     clock.Clock
	log       *slog.Logger
	notify    domain.ChangeNotifier
	batchSize int
}

func NewScheduler(store SweepStore, clk clock.Clock, log *slog.Logger, notify domain.ChangeNotifier) *Scheduler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if notify == nil {
		notify = domain.NopNotifier{}
	}
	return &Scheduler{
		store:     store,
		clock:     clk,
		log:       logger.OrDefault(log).With("component", "budget_scheduler"),
		notify:    notify,
		batchSize: 500,
	}
}

type SweepReport struct {
	Due       int `json:"due"`
	Completed int `json:"completed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Sweep is idempotent. The status write only lands while the budget is still
// running, so a budget paused or completed after it was listed stays as is.
func (s *Scheduler) Sweep(ctx context.Context) (SweepReport, error) {
	var rep SweepReport
	now := s.clock.Now()
	for {
		due, err := s.store.ListDueBudgets(ctx, now, s.batchSize)
		if err != nil {
			return rep, err
		}
		progress := 0
		for _, b := range due {
			if err := ctx.Err(); err != nil {
				return rep, err
			}
			rep.Due++
			switch err := s.complete(ctx, b, now); {
			case err == nil:
				rep.Completed++
				progress++
			case errors.Is(err, errSkipped):
				rep.Skipped++
				progress++
			default:
				rep.Failed++
			}
		}
		if len(due) < s.batchSize || progress == 0 {
			break
		}
	}
	if rep.Due > 0 {
		s.log.Info("budget sweep finished", "due", rep.Due, "completed", rep.Completed, "skipped", rep.Skipped, "failed", rep.Failed)
	}
	return rep, nil
}

var errSkipped = errors.New("status changed before completion")

func (s *Scheduler) complete(ctx context.Context, b domain.Budget, now time.Time) error {
	spent, err := s.store.SumBudgetExpenses(ctx, b.OwnerID, b.ID)
	if err != nil {
		s.log.Error("sum budget expenses", "budget_id", b.ID, "err", err)
		return err
	}
	ok, err := s.store.TransitionBudget(ctx, b.OwnerID, b.ID, domain.BudgetRunning, domain.BudgetCompleted, spent, now)
	if err != nil {
		s.log.Error("complete budget", "budget_id", b.ID, "err", err)
		return err
	}
	if !ok {
		return errSkipped
	}
	s.log.Info("budget completed", "owner_id", b.OwnerID, "budget_id", b.ID, "spent", spent, "amount", b.Amount)
	s.notify.Changed(b.OwnerID)
	return nil
}
