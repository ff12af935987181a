package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/testutil"
)

var day0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }

func TestPartyRoundTripAndOwnership(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)

	limit := int64(50_000)
	p := &domain.Party{OwnerID: "u1", Kind: domain.Customer, Name: "Ramesh", Phone: "98", Address: strp("Main Rd"), CreditLimit: &limit}
	require.NoError(t, st.InsertParty(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := st.GetParty(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ramesh", got.Name)
	assert.Equal(t, domain.Customer, got.Kind)
	require.NotNil(t, got.Address)
	assert.Equal(t, "Main Rd", *got.Address)
	require.NotNil(t, got.CreditLimit)
	assert.Equal(t, limit, *got.CreditLimit)

	_, err = st.GetParty(ctx, "u2", p.ID)
	assert.True(t, domain.IsNotFound(err))

	require.NoError(t, st.InsertParty(ctx, &domain.Party{OwnerID: "u1", Kind: domain.Vendor, Name: "Anil"}))
	all, err := st.ListParties(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	vendors, err := st.ListParties(ctx, "u1", domain.Vendor)
	require.NoError(t, err)
	require.Len(t, vendors, 1)
	assert.Equal(t, "Anil", vendors[0].Name)
}

func TestSwapOutstanding(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)

	p := &domain.Party{OwnerID: "u1", Kind: domain.Customer, Name: "C"}
	require.NoError(t, st.InsertParty(ctx, p))

	ok, err := st.SwapOutstanding(ctx, "u1", p.ID, 0, 300, day0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.SwapOutstanding(ctx, "u1", p.ID, 0, 500, day0)
	require.NoError(t, err)
	assert.False(t, ok, "stale prev must not win")

	got, err := st.GetParty(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got.Outstanding)
}

func TestRecomputeWritesInOneStatement(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)

	p := &domain.Party{OwnerID: "u1", Kind: domain.Customer, Name: "C"}
	require.NoError(t, st.InsertParty(ctx, p))
	require.NoError(t, st.InsertTransaction(ctx, &domain.Transaction{OwnerID: "u1", PartyID: p.ID, Type: domain.Purchase, Amount: 500, Date: day0}))
	require.NoError(t, st.InsertTransaction(ctx, &domain.Transaction{OwnerID: "u1", PartyID: p.ID, Type: domain.Payment, Amount: 80, Date: day0}))
	// another owner's row under the same party id never counts
	require.NoError(t, st.InsertTransaction(ctx, &domain.Transaction{OwnerID: "u2", PartyID: p.ID, Type: domain.Purchase, Amount: 999, Date: day0}))

	out, err := st.RecomputeOutstanding(ctx, "u1", p.ID, day0)
	require.NoError(t, err)
	assert.Equal(t, int64(420), out)
	got, err := st.GetParty(ctx, "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(420), got.Outstanding)

	_, err = st.RecomputeOutstanding(ctx, "u2", p.ID, day0)
	assert.True(t, domain.IsNotFound(err))

	b := &domain.Budget{
		OwnerID: "u1", Name: "Food", Amount: 5000, Duration: domain.Weekly,
		StartDate: day0, EndDate: day0.AddDate(0, 0, 7), Status: domain.BudgetRunning,
	}
	require.NoError(t, st.InsertBudget(ctx, b))
	require.NoError(t, st.InsertExpense(ctx, &domain.Expense{OwnerID: "u1", Amount: 120, Category: "food", Type: domain.BudgetExpense, BudgetID: &b.ID, Date: day0}))
	spent, ok, err := st.RecomputeBudgetSpent(ctx, "u1", b.ID, day0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(120), spent)

	inc := &domain.Income{OwnerID: "u1", OriginalAmount: 1000, Amount: 1000, Source: "salary", Date: day0, IsConnected: true}
	require.NoError(t, st.InsertIncome(ctx, inc))
	gift := &domain.Income{OwnerID: "u1", OriginalAmount: 10, Amount: 10, Source: "gift", Date: day0}
	require.NoError(t, st.InsertIncome(ctx, gift))
	require.NoError(t, st.InsertExpense(ctx, &domain.Expense{OwnerID: "u1", Amount: 250, Category: "rent", Type: domain.FreeExpense, AffectsBalance: true, IncomeID: &inc.ID, Date: day0}))
	require.NoError(t, st.InsertExpense(ctx, &domain.Expense{OwnerID: "u1", Amount: 4, Category: "misc", Type: domain.FreeExpense, AffectsBalance: true, IncomeID: &gift.ID, Date: day0}))

	remaining, err := st.RecomputeIncomeAmount(ctx, "u1", inc.ID, day0)
	require.NoError(t, err)
	assert.Equal(t, int64(750), remaining)
	remaining, err = st.RecomputeIncomeAmount(ctx, "u1", gift.ID, day0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), remaining, "unconnected incomes keep their original amount")

	_, err = st.RecomputeIncomeAmount(ctx, "u1", "missing", day0)
	assert.True(t, domain.IsNotFound(err))
}

func TestTransactionsSumAndItems(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)

	due := day0.Add(72 * time.Hour)
	purchase := &domain.Transaction{
		OwnerID: "u1", PartyID: "p1", Type: domain.Purchase, Amount: 500, PaidAmount: 200,
		Items:   []domain.LineItem{{Name: "rice", Quantity: 5, UnitPrice: 100}},
		Date:    day0, DueDate: &due, RequestID: strp("req-1"),
	}
	require.NoError(t, st.InsertTransaction(ctx, purchase))
	payment := &domain.Transaction{
		OwnerID: "u1", PartyID: "p1", Type: domain.Payment, Amount: 200, Date: day0,
		LinkedTransactionID: &purchase.ID, AutoCreated: true,
	}
	require.NoError(t, st.InsertTransaction(ctx, payment))
	require.NoError(t, st.InsertTransaction(ctx, &domain.Transaction{
		OwnerID: "u1", PartyID: "p2", Type: domain.Purchase, Amount: 999, Date: day0,
	}))

	totals, err := st.SumTransactions(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.Totals{Purchases: 500, Payments: 200}, totals)
	assert.Equal(t, int64(300), totals.Outstanding())

	got, err := st.GetTransaction(ctx, "u1", purchase.ID)
	require.NoError(t, err)
	assert.Equal(t, purchase.Items, got.Items)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))
	assert.True(t, got.Date.Equal(day0))

	byReq, err := st.FindTransactionByRequestID(ctx, "u1", "req-1")
	require.NoError(t, err)
	assert.Equal(t, purchase.ID, byReq.ID)

	dup := &domain.Transaction{OwnerID: "u1", PartyID: "p1", Type: domain.Payment, Amount: 1, Date: day0, RequestID: strp("req-1")}
	assert.Error(t, st.InsertTransaction(ctx, dup), "request id is unique per owner")

	list, err := st.ListTransactions(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	n, err := st.DeleteTransactionsByParty(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	totals, err = st.SumTransactions(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Zero(t, totals.Outstanding())
}

func TestBudgetTransitionIsConditional(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)

	b := &domain.Budget{
		OwnerID: "u1", Name: "Food", Amount: 1000, Duration: domain.Weekly,
		StartDate: day0, EndDate: day0.Add(7 * 24 * time.Hour), Status: domain.BudgetRunning,
	}
	require.NoError(t, st.InsertBudget(ctx, b))

	ok, err := st.TransitionBudget(ctx, "u1", b.ID, domain.BudgetRunning, domain.BudgetPaused, 0, day0)
	require.NoError(t, err)
	assert.True(t, ok)

	// a writer that still thinks the budget is running loses
	ok, err = st.TransitionBudget(ctx, "u1", b.ID, domain.BudgetRunning, domain.BudgetCompleted, 10, day0)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := st.GetBudget(ctx, "u1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BudgetPaused, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestCompletedBudgetSpentIsFrozen(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)

	b := &domain.Budget{
		OwnerID: "u1", Name: "Trip", Amount: 5000, Duration: domain.Custom,
		StartDate: day0, EndDate: day0.Add(48 * time.Hour), Status: domain.BudgetRunning,
	}
	require.NoError(t, st.InsertBudget(ctx, b))

	ok, err := st.TransitionBudget(ctx, "u1", b.ID, domain.BudgetRunning, domain.BudgetCompleted, 1200, day0)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, st.InsertExpense(ctx, &domain.Expense{OwnerID: "u1", Amount: 300, Category: "food", Type: domain.BudgetExpense, BudgetID: &b.ID, Date: day0}))
	_, ok, err = st.RecomputeBudgetSpent(ctx, "u1", b.ID, day0)
	require.NoError(t, err)
	assert.False(t, ok)

	b.Name = "renamed"
	ok, err = st.UpdateBudget(ctx, *b)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := st.GetBudget(ctx, "u1", b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), got.Spent)
	assert.Equal(t, "Trip", got.Name)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(day0))
}

func TestListDueBudgets(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)

	mk := func(owner string, end time.Time, status domain.BudgetStatus) string {
		b := &domain.Budget{OwnerID: owner, Name: "b", Amount: 100, Duration: domain.Custom,
			StartDate: end.Add(-time.Hour), EndDate: end, Status: status}
		require.NoError(t, st.InsertBudget(ctx, b))
		return b.ID
	}
	due := mk("u1", day0.Add(-time.Minute), domain.BudgetRunning)
	mk("u2", day0.Add(-time.Minute), domain.BudgetPaused)
	mk("u2", day0.Add(time.Minute), domain.BudgetRunning)

	got, err := st.ListDueBudgets(ctx, day0, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due, got[0].ID)
}

func TestExpenseAggregates(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)

	add := func(e domain.Expense) domain.Expense {
		e.OwnerID = "u1"
		e.Date = day0
		require.NoError(t, st.InsertExpense(ctx, &e))
		return e
	}
	add(domain.Expense{Amount: 100, Category: "food", Type: domain.BudgetExpense, BudgetID: strp("b1")})
	add(domain.Expense{Amount: 50, Category: "food", Type: domain.BudgetExpense, BudgetID: strp("b1"), AffectsBalance: true, IncomeID: strp("i1")})
	// free expense carrying a stale budget id does not count toward the budget
	add(domain.Expense{Amount: 7, Category: "misc", Type: domain.FreeExpense, BudgetID: strp("b1")})
	e := add(domain.Expense{Amount: 200, Category: "rent", Type: domain.FreeExpense, AffectsBalance: true, IncomeID: strp("i1")})

	spent, err := st.SumBudgetExpenses(ctx, "u1", "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(150), spent)

	linked, err := st.SumLinkedExpenses(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), linked)

	e.AffectsBalance = false
	e.IncomeID = nil
	require.NoError(t, st.UpdateExpense(ctx, e))
	linked, err = st.SumLinkedExpenses(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), linked)

	n, err := st.CountLinkedExpenses(ctx, "u1", "i1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	food, err := st.ListExpenses(ctx, "u1", domain.ExpenseFilter{Category: "food"})
	require.NoError(t, err)
	assert.Len(t, food, 2)

	require.NoError(t, st.DeleteExpense(ctx, "u1", e.ID))
	assert.True(t, domain.IsNotFound(st.DeleteExpense(ctx, "u1", e.ID)))
}

func TestIncomeAmountSwap(t *testing.T) {
	ctx := context.Background()
	st := testutil.NewStore(t)

	inc := &domain.Income{OwnerID: "u1", OriginalAmount: 1000, Amount: 1000, Source: "salary", Date: day0, IsConnected: true}
	require.NoError(t, st.InsertIncome(ctx, inc))
	require.NoError(t, st.InsertIncome(ctx, &domain.Income{OwnerID: "u1", OriginalAmount: 10, Amount: 10, Source: "gift", Date: day0}))

	ok, err := st.SwapIncomeAmount(ctx, "u1", inc.ID, 1000, 800, day0)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.SwapIncomeAmount(ctx, "u1", inc.ID, 1000, 700, day0)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := st.GetIncome(ctx, "u1", inc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.OriginalAmount)
	assert.Equal(t, int64(800), got.Amount)
	assert.True(t, got.IsConnected)

	page, err := st.ListConnectedIncomesPage(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, inc.ID, page[0].ID)
}
