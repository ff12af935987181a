// Package analytics answers read-only questions over the stored aggregates.
// Results are cached per owner and dropped whenever that owner writes.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ishantswami13-crypto/vantro-khata/internal/budget"
	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/money"
)

const (
	ckCategories = "agg:%s:categories:%d:%d"
	ckTrend      = "agg:%s:trend:%d:%s"
	ckOverview   = "agg:%s:overview:%s"

	DefaultCacheExpiration = 30 * time.Second
	CacheCleanupInterval   = 5 * time.Minute

	// AlertPercent is the spent share at which a running budget shows up in
	// the overview alerts.
	AlertPercent = 80.0
	maxMonths    = 24
)

type Store interface {
	SumExpensesByCategory(ctx context.Context, ownerID string, from, to *time.Time) ([]domain.CategoryTotal, error)
	SumExpensesByMonth(ctx context.Context, ownerID string, from time.Time) ([]domain.MonthTotal, error)
	SumIncomesByMonth(ctx context.Context, ownerID string, from time.Time) ([]domain.MonthTotal, error)
	SumOutstandingByKind(ctx context.Context, ownerID string) ([]domain.PartyKindTotal, error)
	SumConnectedBalance(ctx context.Context, ownerID string) (int64, error)
	ListBudgets(ctx context.Context, ownerID string, status domain.BudgetStatus) ([]domain.Budget, error)
}

// Aggregator never writes to the store. It implements domain.ChangeNotifier
// so engines can invalidate its cache after a mutation.
type Aggregator struct {
	store Store
	cache *cache.Cache
	clock clock.Clock
	log   *slog.Logger
}

func NewAggregator(store Store, clk clock.Clock, log *slog.Logger, ttl time.Duration) *Aggregator {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	return &Aggregator{
		store: store,
		cache: cache.New(ttl, CacheCleanupInterval),
		clock: clk,
		log:   logger.OrDefault(log).With("component", "analytics"),
	}
}

// Changed drops every cached result of the owner.
func (a *Aggregator) Changed(ownerID string) {
	prefix := "agg:" + ownerID + ":"
	n := 0
	for key := range a.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			a.cache.Delete(key)
			n++
		}
	}
	if n > 0 {
		a.log.Debug("invalidated analytics cache", "owner_id", ownerID, "keys", n)
	}
}

type CategoryShare struct {
	Category string  `json:"category"`
	Total    int64   `json:"total"`
	Count    int64   `json:"count"`
	Percent  float64 `json:"percent"`
}

type CategoryReport struct {
	From        *time.Time      `json:"from,omitempty"`
	To          *time.Time      `json:"to,omitempty"`
	Total       int64           `json:"total"`
	Count       int64           `json:"count"`
	TopCategory string          `json:"top_category"`
	Categories  []CategoryShare `json:"categories"`
	Insight     string          `json:"insight"`
}

// CategoryTotals breaks the owner's expenses in [from, to) down by category,
// largest first. Either bound may be nil.
func (a *Aggregator) CategoryTotals(ctx context.Context, ownerID string, from, to *time.Time) (CategoryReport, error) {
	key := fmt.Sprintf(ckCategories, ownerID, unix(from), unix(to))
	if v, ok := a.cache.Get(key); ok {
		return v.(CategoryReport), nil
	}

	rows, err := a.store.SumExpensesByCategory(ctx, ownerID, from, to)
	if err != nil {
		return CategoryReport{}, fmt.Errorf("sum by category: %w", err)
	}
	rep := CategoryReport{From: from, To: to, TopCategory: "none", Categories: make([]CategoryShare, 0, len(rows))}
	for _, r := range rows {
		if rep.Total, err = money.Sum(rep.Total, r.Total); err != nil {
			return CategoryReport{}, err
		}
		rep.Count += r.Count
	}
	for _, r := range rows {
		rep.Categories = append(rep.Categories, CategoryShare{
			Category: r.Category,
			Total:    r.Total,
			Count:    r.Count,
			Percent:  money.Percent(r.Total, rep.Total),
		})
	}
	if len(rep.Categories) > 0 {
		rep.TopCategory = rep.Categories[0].Category
	}
	rep.Insight = buildInsight(rep.Categories, rep.Total)

	a.cache.SetDefault(key, rep)
	return rep, nil
}

func buildInsight(shares []CategoryShare, total int64) string {
	if total <= 0 || len(shares) == 0 {
		return "No spends logged in this period."
	}
	top := shares[0]
	if top.Percent >= 45 {
		return "Almost half of your spending went to " + top.Category + ". Small cuts here make the biggest difference."
	}
	if top.Category == "misc" && top.Percent >= 25 {
		return "A lot is landing in misc. Add a word or two when logging so expenses get a proper category."
	}
	return "Your spending is fairly spread out. Trends get clearer after two or three months of logging."
}

type TrendPoint struct {
	Month   string `json:"month"`
	Income  int64  `json:"income"`
	Expense int64  `json:"expense"`
	Net     int64  `json:"net"`
}

// MonthlyTrend returns income against expense for the last `months` calendar
// months including the current one, oldest first. Months without activity
// are present with zeros.
func (a *Aggregator) MonthlyTrend(ctx context.Context, ownerID string, months int) ([]TrendPoint, error) {
	if months <= 0 {
		months = 6
	}
	if months > maxMonths {
		months = maxMonths
	}
	now := a.clock.Now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	key := fmt.Sprintf(ckTrend, ownerID, months, first.Format("2006-01"))
	if v, ok := a.cache.Get(key); ok {
		return v.([]TrendPoint), nil
	}

	expenses, err := a.store.SumExpensesByMonth(ctx, ownerID, first)
	if err != nil {
		return nil, fmt.Errorf("sum expenses by month: %w", err)
	}
	incomes, err := a.store.SumIncomesByMonth(ctx, ownerID, first)
	if err != nil {
		return nil, fmt.Errorf("sum incomes by month: %w", err)
	}

	points := make([]TrendPoint, months)
	index := make(map[string]int, months)
	for i := range points {
		m := first.AddDate(0, i, 0).Format("2006-01")
		points[i].Month = m
		index[m] = i
	}
	for _, e := range expenses {
		if i, ok := index[e.Month]; ok {
			points[i].Expense = e.Total
		}
	}
	for _, in := range incomes {
		if i, ok := index[in.Month]; ok {
			points[i].Income = in.Total
		}
	}
	for i := range points {
		points[i].Net = points[i].Income - points[i].Expense
	}

	a.cache.SetDefault(key, points)
	return points, nil
}

type BudgetAlert struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Amount     int64   `json:"amount"`
	Spent      int64   `json:"spent"`
	Percentage float64 `json:"percentage"`
	DaysLeft   int     `json:"days_left"`
	OverBudget bool    `json:"over_budget"`
}

type Overview struct {
	Receivable       int64         `json:"receivable"` // customers owe the owner
	Payable          int64         `json:"payable"`    // the owner owes vendors
	Customers        int64         `json:"customers"`
	Vendors          int64         `json:"vendors"`
	ConnectedBalance int64         `json:"connected_balance"`
	MonthSpent       int64         `json:"month_spent"`
	BudgetAlerts     []BudgetAlert `json:"budget_alerts"`
}

// Overview reads cached party balances and budget spent as stored; it does
// not recompute them.
func (a *Aggregator) Overview(ctx context.Context, ownerID string) (Overview, error) {
	now := a.clock.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	key := fmt.Sprintf(ckOverview, ownerID, monthStart.Format("2006-01"))
	if v, ok := a.cache.Get(key); ok {
		return v.(Overview), nil
	}

	var ov Overview
	kinds, err := a.store.SumOutstandingByKind(ctx, ownerID)
	if err != nil {
		return Overview{}, fmt.Errorf("sum outstanding: %w", err)
	}
	for _, k := range kinds {
		switch k.Kind {
		case domain.Customer:
			ov.Receivable, ov.Customers = k.Outstanding, k.Parties
		case domain.Vendor:
			ov.Payable, ov.Vendors = k.Outstanding, k.Parties
		}
	}

	if ov.ConnectedBalance, err = a.store.SumConnectedBalance(ctx, ownerID); err != nil {
		return Overview{}, fmt.Errorf("sum connected balance: %w", err)
	}

	month, err := a.store.SumExpensesByMonth(ctx, ownerID, monthStart)
	if err != nil {
		return Overview{}, fmt.Errorf("sum month expenses: %w", err)
	}
	for _, m := range month {
		ov.MonthSpent += m.Total
	}

	running, err := a.store.ListBudgets(ctx, ownerID, domain.BudgetRunning)
	if err != nil {
		return Overview{}, fmt.Errorf("list budgets: %w", err)
	}
	ov.BudgetAlerts = make([]BudgetAlert, 0)
	for _, b := range running {
		v := budget.NewView(b, now)
		if v.Percentage < AlertPercent && !v.OverBudget {
			continue
		}
		ov.BudgetAlerts = append(ov.BudgetAlerts, BudgetAlert{
			ID:         b.ID,
			Name:       b.Name,
			Amount:     b.Amount,
			Spent:      b.Spent,
			Percentage: v.Percentage,
			DaysLeft:   v.DaysLeft,
			OverBudget: v.OverBudget,
		})
	}

	a.cache.SetDefault(key, ov)
	return ov, nil
}

func unix(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}
