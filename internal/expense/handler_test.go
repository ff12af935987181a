package expense_test

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/expense"
	"github.com/ishantswami13-crypto/vantro-khata/internal/income"
	"github.com/ishantswami13-crypto/vantro-khata/internal/testutil"
)

func newApp(f *fixture) *fiber.App {
	h := expense.NewHandler(f.svc)
	app := testutil.NewApp()
	app.Post("/api/expenses", h.CreateExpense)
	app.Post("/api/expenses/quick", h.QuickExpense)
	app.Get("/api/expenses", h.ListExpenses)
	app.Get("/api/expenses/:id", h.GetExpense)
	app.Patch("/api/expenses/:id", h.UpdateExpense)
	app.Delete("/api/expenses/:id", h.DeleteExpense)
	return app
}

func TestHandlerRejectsCompletedBudget(t *testing.T) {
	f := newFixture(t)
	app := newApp(f)
	ctx := context.Background()
	b := f.budget(t, "Groceries")

	code, e := testutil.Call(t, app, owner, "POST", "/api/expenses",
		map[string]any{"amount": 4000, "category": "food", "type": "budget", "budget_id": b, "date": "2024-09-02"})
	require.Equal(t, fiber.StatusCreated, code)
	id := e["id"].(string)

	_, err := f.budgets.SetStatus(ctx, owner, b, "completed")
	require.NoError(t, err)

	code, body := testutil.Call(t, app, owner, "POST", "/api/expenses",
		map[string]any{"amount": 100, "category": "food", "type": "budget", "budget_id": b})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.NotEmpty(t, body["error"])

	code, _ = testutil.Call(t, app, owner, "PATCH", "/api/expenses/"+id, map[string]any{"amount": 9000})
	assert.Equal(t, fiber.StatusConflict, code)

	v, err := f.budgets.Get(ctx, owner, b)
	require.NoError(t, err)
	assert.EqualValues(t, 4000, v.Spent)

	code, _ = testutil.Call(t, app, owner, "DELETE", "/api/expenses/"+id, nil)
	assert.Equal(t, fiber.StatusNoContent, code)
	v, err = f.budgets.Get(ctx, owner, b)
	require.NoError(t, err)
	assert.EqualValues(t, 4000, v.Spent, "a completed budget keeps its frozen spent")
}

func TestHandlerRejectsUnconnectedIncome(t *testing.T) {
	f := newFixture(t)
	app := newApp(f)
	inc, err := f.incomes.Create(context.Background(), owner, income.Input{Amount: 50000, Source: "gift"})
	require.NoError(t, err)

	code, body := testutil.Call(t, app, owner, "POST", "/api/expenses",
		map[string]any{"amount": 1000, "category": "rent", "type": "free", "affects_balance": true, "income_id": inc.ID})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.NotEmpty(t, body["error"])

	code, _ = testutil.Call(t, app, owner, "GET", "/api/expenses?category=rent", nil)
	assert.Equal(t, fiber.StatusOK, code)
	list, err := f.svc.List(context.Background(), owner, domain.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "the rejected expense was not kept")
}

func TestHandlerExpenseStatusMapping(t *testing.T) {
	f := newFixture(t)
	app := newApp(f)

	code, _ := testutil.Call(t, app, owner, "POST", "/api/expenses", map[string]any{"amount": 100, "category": "food", "type": "loan"})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = testutil.Call(t, app, owner, "POST", "/api/expenses", map[string]any{"amount": 100, "category": "food", "type": "free", "date": "02/09/2024"})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = testutil.Call(t, app, owner, "POST", "/api/expenses/quick", map[string]any{"text": "pizza"})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, e := testutil.Call(t, app, owner, "POST", "/api/expenses/quick", map[string]any{"text": "250 food pizza"})
	require.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, "food", e["category"])

	code, _ = testutil.Call(t, app, owner, "GET", "/api/expenses/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = testutil.Call(t, app, "", "POST", "/api/expenses/quick", map[string]any{"text": "250 food pizza"})
	assert.Equal(t, fiber.StatusUnauthorized, code)
}
