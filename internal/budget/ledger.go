// Package budget tracks what each budget has spent and moves budgets through
// running, paused and completed. Spent is always re-derived from the expense
// records and is frozen once the budget completes.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/money"
)

type Store interface {
	InsertBudget(ctx context.Context, b *domain.Budget) error
	GetBudget(ctx context.Context, ownerID, id string) (domain.Budget, error)
	ListBudgets(ctx context.Context, ownerID string, status domain.BudgetStatus) ([]domain.Budget, error)
	UpdateBudget(ctx context.Context, b domain.Budget) (bool, error)
	RecomputeBudgetSpent(ctx context.Context, ownerID, id string, at time.Time) (int64, bool, error)
	TransitionBudget(ctx context.Context, ownerID, id string, from, to domain.BudgetStatus, spent int64, at time.Time) (bool, error)
	DeleteBudget(ctx context.Context, ownerID, id string) error
	SumBudgetExpenses(ctx context.Context, ownerID, budgetID string) (int64, error)
	CountBudgetExpenses(ctx context.Context, ownerID, budgetID string) (int64, error)
}

type Ledger struct {
	store  Store
	clock  clock.Clock
	log    *slog.Logger
	notify domain.ChangeNotifier
}

func NewLedger(store Store, clk clock.Clock, log *slog.Logger, notify domain.ChangeNotifier) *Ledger {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if notify == nil {
		notify = domain.NopNotifier{}
	}
	return &Ledger{store: store, clock: clk, log: logger.OrDefault(log).With("component", "budget"), notify: notify}
}

// View is a budget with its derived figures as of now.
type View struct {
	domain.Budget
	Remaining  int64   `json:"remaining"`
	Percentage float64 `json:"percentage"`
	DaysLeft   int     `json:"days_left"`
	OverBudget bool    `json:"over_budget"`
}

func NewView(b domain.Budget, now time.Time) View {
	days := 0
	if left := b.EndDate.Sub(now); left > 0 {
		days = int(left / (24 * time.Hour))
	}
	return View{
		Budget:     b,
		Remaining:  b.Amount - b.Spent,
		Percentage: money.Percent(b.Spent, b.Amount),
		DaysLeft:   days,
		OverBudget: b.Spent > b.Amount,
	}
}

type Input struct {
	Name      string
	Amount    int64
	Category  *string
	Duration  string
	StartDate time.Time
	EndDate   *time.Time
	Status    string
}

// Create opens a budget. Weekly and monthly budgets derive their end date
// from the start; custom ones must supply an end after the start.
func (l *Ledger) Create(ctx context.Context, ownerID string, in Input) (View, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return View{}, domain.Invalid("name", "required")
	}
	if in.Amount <= 0 {
		return View{}, domain.Invalid("amount", "must be greater than zero")
	}
	dur, ok := domain.ParseBudgetDuration(in.Duration)
	if !ok {
		return View{}, domain.Invalid("duration", "must be weekly, monthly or custom")
	}
	status := domain.BudgetRunning
	if strings.TrimSpace(in.Status) != "" {
		s, ok := domain.ParseBudgetStatus(in.Status)
		if !ok || s == domain.BudgetCompleted {
			return View{}, domain.Invalid("status", "a new budget is running or paused")
		}
		status = s
	}

	now := l.clock.Now()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}
	end, err := endDate(dur, start, in.EndDate)
	if err != nil {
		return View{}, err
	}

	b := domain.Budget{
		OwnerID:   ownerID,
		Name:      name,
		Amount:    in.Amount,
		Category:  trimPtr(in.Category),
		Duration:  dur,
		StartDate: start,
		EndDate:   end,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.store.InsertBudget(ctx, &b); err != nil {
		return View{}, fmt.Errorf("insert budget: %w", err)
	}
	l.notify.Changed(ownerID)
	return NewView(b, now), nil
}

func endDate(dur domain.BudgetDuration, start time.Time, end *time.Time) (time.Time, error) {
	switch dur {
	case domain.Weekly:
		return start.AddDate(0, 0, 7), nil
	case domain.Monthly:
		return start.AddDate(0, 1, 0), nil
	}
	if end == nil {
		return time.Time{}, domain.Invalid("end_date", "required for a custom budget")
	}
	if !end.After(start) {
		return time.Time{}, domain.Invalid("end_date", "must be after start_date")
	}
	return *end, nil
}

func (l *Ledger) Get(ctx context.Context, ownerID, id string) (View, error) {
	b, err := l.store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return View{}, err
	}
	return NewView(b, l.clock.Now()), nil
}

func (l *Ledger) List(ctx context.Context, ownerID, status string) ([]View, error) {
	var s domain.BudgetStatus
	if strings.TrimSpace(status) != "" {
		var ok bool
		if s, ok = domain.ParseBudgetStatus(status); !ok {
			return nil, domain.Invalid("status", "must be running, paused or completed")
		}
	}
	list, err := l.store.ListBudgets(ctx, ownerID, s)
	if err != nil {
		return nil, err
	}
	now := l.clock.Now()
	out := make([]View, 0, len(list))
	for _, b := range list {
		out = append(out, NewView(b, now))
	}
	return out, nil
}

type Patch struct {
	Name     *string
	Amount   *int64
	Category *string
	EndDate  *time.Time
}

// Update edits a budget that has not completed.
func (l *Ledger) Update(ctx context.Context, ownerID, id string, patch Patch) (View, error) {
	b, err := l.store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return View{}, err
	}
	if b.Status == domain.BudgetCompleted {
		return View{}, domain.InvalidState("budget", id, "completed budgets are read-only")
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return View{}, domain.Invalid("name", "required")
		}
		b.Name = name
	}
	if patch.Amount != nil {
		if *patch.Amount <= 0 {
			return View{}, domain.Invalid("amount", "must be greater than zero")
		}
		b.Amount = *patch.Amount
	}
	if patch.Category != nil {
		b.Category = trimPtr(patch.Category)
	}
	if patch.EndDate != nil {
		if !patch.EndDate.After(b.StartDate) {
			return View{}, domain.Invalid("end_date", "must be after start_date")
		}
		b.EndDate = *patch.EndDate
	}
	b.UpdatedAt = l.clock.Now()

	ok, err := l.store.UpdateBudget(ctx, b)
	if err != nil {
		return View{}, err
	}
	if !ok {
		return View{}, domain.InvalidState("budget", id, "completed budgets are read-only")
	}
	l.notify.Changed(ownerID)
	return NewView(b, b.UpdatedAt), nil
}

// SetStatus applies a manual lifecycle transition. Setting the current status
// again is a no-op. Completing freezes spent at its recomputed value.
func (l *Ledger) SetStatus(ctx context.Context, ownerID, id, status string) (View, error) {
	to, ok := domain.ParseBudgetStatus(status)
	if !ok {
		return View{}, domain.Invalid("status", "must be running, paused or completed")
	}
	b, err := l.store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return View{}, err
	}
	if b.Status == to {
		return NewView(b, l.clock.Now()), nil
	}
	if !b.Status.CanTransition(to) {
		return View{}, domain.InvalidState("budget", id, fmt.Sprintf("cannot move from %s to %s", b.Status, to))
	}

	spent := b.Spent
	if to == domain.BudgetCompleted {
		if spent, err = l.store.SumBudgetExpenses(ctx, ownerID, id); err != nil {
			return View{}, fmt.Errorf("sum budget expenses: %w", err)
		}
	}
	now := l.clock.Now()
	swapped, err := l.store.TransitionBudget(ctx, ownerID, id, b.Status, to, spent, now)
	if err != nil {
		return View{}, err
	}

	cur, err := l.store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return View{}, err
	}
	if !swapped && cur.Status != to {
		return View{}, domain.InvalidState("budget", id, fmt.Sprintf("status changed to %s meanwhile", cur.Status))
	}
	if swapped {
		l.log.Info("budget status changed", "owner_id", ownerID, "budget_id", id, "from", b.Status, "to", to)
		l.notify.Changed(ownerID)
	}
	return NewView(cur, now), nil
}

// CheckPostable returns the budget if an expense may be recorded against it.
func (l *Ledger) CheckPostable(ctx context.Context, ownerID, id string) (domain.Budget, error) {
	b, err := l.store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return domain.Budget{}, err
	}
	if b.Status == domain.BudgetCompleted {
		return domain.Budget{}, domain.InvalidState("budget", id, "budget is completed")
	}
	return b, nil
}

// Recompute re-derives spent and stores it. Frozen reports that the budget was
// completed (or removed) so nothing was written.
func (l *Ledger) Recompute(ctx context.Context, ownerID, id string) (spent int64, frozen bool, err error) {
	spent, written, err := l.store.RecomputeBudgetSpent(ctx, ownerID, id, l.clock.Now())
	if err != nil {
		return 0, false, fmt.Errorf("store spent: %w", err)
	}
	if written {
		return spent, false, nil
	}
	spent, err = l.store.SumBudgetExpenses(ctx, ownerID, id)
	if err != nil {
		return 0, true, fmt.Errorf("sum budget expenses: %w", err)
	}
	return spent, true, nil
}

// Counted reports whether a completed budget's frozen spent equals what its
// expense rows sum to right now, i.e. the completion already took the latest
// write into account.
func (l *Ledger) Counted(ctx context.Context, ownerID, id string) (bool, error) {
	b, err := l.store.GetBudget(ctx, ownerID, id)
	if err != nil {
		return false, err
	}
	if b.Status != domain.BudgetCompleted {
		return false, nil
	}
	sum, err := l.store.SumBudgetExpenses(ctx, ownerID, id)
	if err != nil {
		return false, fmt.Errorf("sum budget expenses: %w", err)
	}
	return b.Spent == sum, nil
}

// Delete removes a budget no expense points at any more.
func (l *Ledger) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := l.store.GetBudget(ctx, ownerID, id); err != nil {
		return err
	}
	n, err := l.store.CountBudgetExpenses(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.InvalidState("budget", id, fmt.Sprintf("%d expenses still reference it", n))
	}
	if err := l.store.DeleteBudget(ctx, ownerID, id); err != nil {
		return err
	}
	l.notify.Changed(ownerID)
	return nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
