// Package income owns incomes and the remaining balance of connected ones.
// Remaining is never decremented in place: it is re-derived as the original
// amount minus every balance-affecting expense currently linked to it.
package income

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
)

type Store interface {
	InsertIncome(ctx context.Context, inc *domain.Income) error
	GetIncome(ctx context.Context, ownerID, id string) (domain.Income, error)
	ListIncomes(ctx context.Context, ownerID string) ([]domain.Income, error)
	UpdateIncome(ctx context.Context, inc domain.Income) error
	DeleteIncome(ctx context.Context, ownerID, id string) error
	RecomputeIncomeAmount(ctx context.Context, ownerID, id string, at time.Time) (int64, error)
	CountLinkedExpenses(ctx context.Context, ownerID, incomeID string) (int64, error)
}

// LinkEngine applies and reverses the effect of balance-affecting expenses on
// connected incomes. Every entry point ends in the same recompute-and-set, so
// link, unlink and relink are all safe to retry.
type LinkEngine struct {
	store Store
	clock clock.Clock
	log   *slog.Logger
}

func NewLinkEngine(store Store, clk clock.Clock, log *slog.Logger) *LinkEngine {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &LinkEngine{store: store, clock: clk, log: logger.OrDefault(log).With("component", "income_link")}
}

// CheckLinkable returns the income if balance-affecting expenses may draw on it.
func (l *LinkEngine) CheckLinkable(ctx context.Context, ownerID, incomeID string) (domain.Income, error) {
	inc, err := l.store.GetIncome(ctx, ownerID, incomeID)
	if err != nil {
		return domain.Income{}, err
	}
	if !inc.IsConnected {
		return domain.Income{}, domain.InvalidState("income", incomeID, "income is not connected")
	}
	return inc, nil
}

// Recompute stores and returns the income's remaining balance. It may go
// negative when linked expenses exceed the original amount.
func (l *LinkEngine) Recompute(ctx context.Context, ownerID, incomeID string) (int64, error) {
	remaining, err := l.store.RecomputeIncomeAmount(ctx, ownerID, incomeID, l.clock.Now())
	if err != nil {
		if domain.IsNotFound(err) {
			return 0, err
		}
		return 0, fmt.Errorf("store remaining: %w", err)
	}
	return remaining, nil
}

// Link is called after a balance-affecting expense was saved.
func (l *LinkEngine) Link(ctx context.Context, ownerID string, e domain.Expense) error {
	return l.recomputeRefs(ctx, ownerID, e.IncomeRef())
}

// Unlink is called after an expense was deleted or stopped affecting balance.
func (l *LinkEngine) Unlink(ctx context.Context, ownerID string, prev domain.Expense) error {
	return l.recomputeRefs(ctx, ownerID, prev.IncomeRef())
}

// Relink settles an edit: each income referenced before or after is
// recomputed once, whether the amount changed or the expense moved.
func (l *LinkEngine) Relink(ctx context.Context, ownerID string, before, after domain.Expense) error {
	return l.recomputeRefs(ctx, ownerID, before.IncomeRef(), after.IncomeRef())
}

func (l *LinkEngine) recomputeRefs(ctx context.Context, ownerID string, ids ...string) error {
	var errs []error
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, err := l.Recompute(ctx, ownerID, id); err != nil {
			if domain.IsNotFound(err) {
				continue
			}
			errs = append(errs, fmt.Errorf("income %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
