// Package expense records spending and keeps the budget and income aggregates
// it touches in step. Each write is a short saga: the expense row is the
// source of truth and every aggregate step after it is an idempotent
// recompute, so a failed step is repaired by a retry or the next sweep.
package expense

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
)

type Store interface {
	InsertExpense(ctx context.Context, e *domain.Expense) error
	GetExpense(ctx context.Context, ownerID, id string) (domain.Expense, error)
	UpdateExpense(ctx context.Context, e domain.Expense) error
	DeleteExpense(ctx context.Context, ownerID, id string) error
	ListExpenses(ctx context.Context, ownerID string, f domain.ExpenseFilter) ([]domain.Expense, error)
}

// Budgets is the part of the budget ledger an expense write needs.
type Budgets interface {
	CheckPostable(ctx context.Context, ownerID, id string) (domain.Budget, error)
	Recompute(ctx context.Context, ownerID, id string) (spent int64, frozen bool, err error)
	Counted(ctx context.Context, ownerID, id string) (bool, error)
}

// Incomes is the balance link engine.
type Incomes interface {
	CheckLinkable(ctx context.Context, ownerID, incomeID string) (domain.Income, error)
	Link(ctx context.Context, ownerID string, e domain.Expense) error
	Unlink(ctx context.Context, ownerID string, prev domain.Expense) error
	Relink(ctx context.Context, ownerID string, before, after domain.Expense) error
}

type Service struct {
	store   Store
	budgets Budgets
	incomes Incomes
	clock   clock.Clock
	log     *slog.Logger
	notify  domain.ChangeNotifier
}

func NewService(store Store, budgets Budgets, incomes Incomes, clk clock.Clock, log *slog.Logger, notify domain.ChangeNotifier) *Service {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if notify == nil {
		notify = domain.NopNotifier{}
	}
	return &Service{
		store:   store,
		budgets: budgets,
		incomes: incomes,
		clock:   clk,
		log:     logger.OrDefault(log).With("component", "expense"),
		notify:  notify,
	}
}

type Input struct {
	Amount         int64
	Category       string
	Reason         string
	Type           string
	BudgetID       *string
	Date           time.Time
	IsRecurring    bool
	Frequency      *string
	AffectsBalance bool
	IncomeID       *string
}

// Patch carries the fields of an edit; nil leaves a field unchanged.
type Patch struct {
	Amount         *int64
	Category       *string
	Reason         *string
	Type           *string
	BudgetID       *string
	Date           *time.Time
	IsRecurring    *bool
	Frequency      *string
	AffectsBalance *bool
	IncomeID       *string
}

// Result is a saved expense. Pending is set when the expense was written but a
// budget or income recompute after it failed; the reconcilers will catch up.
type Result struct {
	domain.Expense
	Pending bool `json:"aggregates_pending,omitempty"`
}

func (s *Service) Create(ctx context.Context, ownerID string, in Input) (Result, error) {
	typ, ok := domain.ParseExpenseType(in.Type)
	if !ok {
		return Result{}, domain.Invalid("type", "must be free or budget")
	}
	e := domain.Expense{
		OwnerID:        ownerID,
		Amount:         in.Amount,
		Category:       in.Category,
		Reason:         in.Reason,
		Type:           typ,
		BudgetID:       in.BudgetID,
		Date:           in.Date,
		IsRecurring:    in.IsRecurring,
		Frequency:      in.Frequency,
		AffectsBalance: in.AffectsBalance,
		IncomeID:       in.IncomeID,
	}
	if e.Date.IsZero() {
		e.Date = s.clock.Now()
	}
	if err := normalize(&e); err != nil {
		return Result{}, err
	}

	if ref := e.BudgetRef(); ref != "" {
		if _, err := s.budgets.CheckPostable(ctx, ownerID, ref); err != nil {
			return Result{}, err
		}
	}
	if ref := e.IncomeRef(); ref != "" {
		if _, err := s.incomes.CheckLinkable(ctx, ownerID, ref); err != nil {
			return Result{}, err
		}
	}

	now := s.clock.Now()
	e.CreatedAt, e.UpdatedAt = now, now
	if err := s.store.InsertExpense(ctx, &e); err != nil {
		return Result{}, err
	}

	res := Result{Expense: e}
	if ref := e.BudgetRef(); ref != "" {
		_, frozen, err := s.budgets.Recompute(ctx, ownerID, ref)
		switch {
		case err != nil:
			res.Pending = true
			s.log.Warn("budget recompute failed", "owner_id", ownerID, "budget_id", ref, "expense_id", e.ID, "err", err)
		case frozen:
			// the budget completed somewhere between the check and the recompute
			counted, pending := s.frozenCounted(ctx, ownerID, ref, e.ID)
			if !counted {
				if err := s.store.DeleteExpense(ctx, ownerID, e.ID); err != nil {
					s.log.Error("compensate expense insert", "owner_id", ownerID, "expense_id", e.ID, "err", err)
				}
				return Result{}, domain.InvalidState("budget", ref, "budget is completed")
			}
			res.Pending = res.Pending || pending
		}
	}
	if err := s.incomes.Link(ctx, ownerID, e); err != nil {
		res.Pending = true
		s.log.Warn("income link failed", "owner_id", ownerID, "income_id", e.IncomeRef(), "expense_id", e.ID, "err", err)
	}

	s.notify.Changed(ownerID)
	s.log.Info("expense recorded", "owner_id", ownerID, "expense_id", e.ID, "amount", e.Amount, "type", e.Type)
	return res, nil
}

// Quick records a free expense from a line like "250 food pizza".
func (s *Service) Quick(ctx context.Context, ownerID, text string, date time.Time) (Result, error) {
	amount, category, reason, ok := parseQuickEntry(text)
	if !ok {
		return Result{}, domain.Invalid("text", "could not find an amount, try \"250 food pizza\"")
	}
	return s.Create(ctx, ownerID, Input{
		Amount:   amount,
		Category: category,
		Reason:   reason,
		Type:     string(domain.FreeExpense),
		Date:     date,
	})
}

func (s *Service) Get(ctx context.Context, ownerID, id string) (domain.Expense, error) {
	return s.store.GetExpense(ctx, ownerID, id)
}

func (s *Service) List(ctx context.Context, ownerID string, f domain.ExpenseFilter) ([]domain.Expense, error) {
	if f.Category != "" {
		f.Category = normalizeCategory(f.Category)
	}
	return s.store.ListExpenses(ctx, ownerID, f)
}

func (s *Service) Update(ctx context.Context, ownerID, id string, patch Patch) (Result, error) {
	before, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return Result{}, err
	}
	if ref := before.BudgetRef(); ref != "" {
		if _, err := s.budgets.CheckPostable(ctx, ownerID, ref); err != nil {
			return Result{}, err
		}
	}

	after, err := apply(before, patch)
	if err != nil {
		return Result{}, err
	}
	if ref := after.BudgetRef(); ref != "" && ref != before.BudgetRef() {
		if _, err := s.budgets.CheckPostable(ctx, ownerID, ref); err != nil {
			return Result{}, err
		}
	}
	if ref := after.IncomeRef(); ref != "" && ref != before.IncomeRef() {
		if _, err := s.incomes.CheckLinkable(ctx, ownerID, ref); err != nil {
			return Result{}, err
		}
	}

	after.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateExpense(ctx, after); err != nil {
		return Result{}, err
	}

	res := Result{Expense: after}
	if ref := after.BudgetRef(); ref != "" {
		_, frozen, err := s.budgets.Recompute(ctx, ownerID, ref)
		switch {
		case err != nil:
			res.Pending = true
			s.log.Warn("budget recompute failed", "owner_id", ownerID, "budget_id", ref, "expense_id", id, "err", err)
		case frozen:
			counted, pending := s.frozenCounted(ctx, ownerID, ref, id)
			if !counted {
				if err := s.store.UpdateExpense(ctx, before); err != nil {
					s.log.Error("compensate expense update", "owner_id", ownerID, "expense_id", id, "err", err)
				}
				return Result{}, domain.InvalidState("budget", ref, "budget is completed")
			}
			res.Pending = res.Pending || pending
		}
	}
	if ref := before.BudgetRef(); ref != "" && ref != after.BudgetRef() {
		if _, _, err := s.budgets.Recompute(ctx, ownerID, ref); err != nil {
			res.Pending = true
			s.log.Warn("budget recompute failed", "owner_id", ownerID, "budget_id", ref, "expense_id", id, "err", err)
		}
	}
	if err := s.incomes.Relink(ctx, ownerID, before, after); err != nil {
		res.Pending = true
		s.log.Warn("income relink failed", "owner_id", ownerID, "expense_id", id, "err", err)
	}

	s.notify.Changed(ownerID)
	return res, nil
}

// frozenCounted is asked once a recompute found the budget completed after the
// expense row was written. When the completion already summed the row into the
// frozen spent, the write stands and must not be undone. If the budget cannot
// be read the write is kept and reported pending.
func (s *Service) frozenCounted(ctx context.Context, ownerID, budgetID, expenseID string) (counted, pending bool) {
	ok, err := s.budgets.Counted(ctx, ownerID, budgetID)
	switch {
	case err == nil:
		if ok {
			s.log.Info("budget completed after expense write, keeping it", "owner_id", ownerID, "budget_id", budgetID, "expense_id", expenseID)
		}
		return ok, false
	case domain.IsNotFound(err):
		return false, false
	default:
		s.log.Warn("frozen budget check failed", "owner_id", ownerID, "budget_id", budgetID, "expense_id", expenseID, "err", err)
		return true, true
	}
}

// Delete removes the expense and settles what it counted against. An expense
// in a completed budget may be deleted; the frozen spent stays as it was.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	prev, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return err
	}
	if ref := prev.BudgetRef(); ref != "" {
		if _, _, err := s.budgets.Recompute(ctx, ownerID, ref); err != nil {
			s.log.Warn("budget recompute failed", "owner_id", ownerID, "budget_id", ref, "expense_id", id, "err", err)
		}
	}
	if err := s.incomes.Unlink(ctx, ownerID, prev); err != nil {
		s.log.Warn("income unlink failed", "owner_id", ownerID, "expense_id", id, "err", err)
	}
	s.notify.Changed(ownerID)
	return nil
}

func apply(e domain.Expense, p Patch) (domain.Expense, error) {
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Reason != nil {
		e.Reason = *p.Reason
	}
	if p.Type != nil {
		typ, ok := domain.ParseExpenseType(*p.Type)
		if !ok {
			return e, domain.Invalid("type", "must be free or budget")
		}
		e.Type = typ
	}
	if p.BudgetID != nil {
		e.BudgetID = p.BudgetID
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.IsRecurring != nil {
		e.IsRecurring = *p.IsRecurring
	}
	if p.Frequency != nil {
		e.Frequency = p.Frequency
	}
	if p.AffectsBalance != nil {
		e.AffectsBalance = *p.AffectsBalance
	}
	if p.IncomeID != nil {
		e.IncomeID = p.IncomeID
	}
	return e, normalize(&e)
}

// normalize validates e and drops references its flags do not use.
func normalize(e *domain.Expense) error {
	if e.Amount <= 0 {
		return domain.Invalid("amount", "must be greater than zero")
	}
	e.Category = normalizeCategory(e.Category)
	e.Reason = strings.TrimSpace(e.Reason)

	e.BudgetID = trimPtr(e.BudgetID)
	switch e.Type {
	case domain.BudgetExpense:
		if e.BudgetID == nil {
			return domain.Invalid("budget_id", "required for a budget expense")
		}
	default:
		e.Type = domain.FreeExpense
		e.BudgetID = nil
	}

	e.Frequency = trimPtr(e.Frequency)
	if e.IsRecurring {
		if e.Frequency == nil || !domain.ValidFrequency(*e.Frequency) {
			return domain.Invalid("frequency", "must be daily, weekly, monthly or yearly")
		}
		f := strings.ToLower(*e.Frequency)
		e.Frequency = &f
	} else {
		e.Frequency = nil
	}

	e.IncomeID = trimPtr(e.IncomeID)
	if e.AffectsBalance {
		if e.IncomeID == nil {
			return domain.Invalid("income_id", "required when the expense affects balance")
		}
	} else {
		e.IncomeID = nil
	}
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
