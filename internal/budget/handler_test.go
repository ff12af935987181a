package budget_test

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishantswami13-crypto/vantro-khata/internal/budget"
	"github.com/ishantswami13-crypto/vantro-khata/internal/testutil"
)

func newApp(f *fixture) *fiber.App {
	h := budget.NewHandler(f.led, f.sched)
	app := testutil.NewApp()
	app.Post("/api/budgets", h.Create)
	app.Get("/api/budgets", h.List)
	app.Post("/api/budgets/sweep", h.Sweep)
	app.Get("/api/budgets/:id", h.Get)
	app.Patch("/api/budgets/:id", h.Update)
	app.Delete("/api/budgets/:id", h.Delete)
	app.Post("/api/budgets/:id/status", h.SetStatus)
	return app
}

func TestHandlerBudgetLifecycle(t *testing.T) {
	f := newFixture(t)
	app := newApp(f)

	code, b := testutil.Call(t, app, owner, "POST", "/api/budgets",
		map[string]any{"name": "Groceries", "amount_rupees": "500", "duration": "weekly", "start_date": "2024-07-01"})
	require.Equal(t, fiber.StatusCreated, code)
	id := b["id"].(string)
	assert.EqualValues(t, 50000, b["amount"])
	assert.Equal(t, "running", b["status"])

	f.spend(t, id, 12000)

	code, b = testutil.Call(t, app, owner, "POST", "/api/budgets/"+id+"/status", map[string]any{"status": "completed"})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "completed", b["status"])
	assert.EqualValues(t, 12000, b["spent"])

	code, body := testutil.Call(t, app, owner, "POST", "/api/budgets/"+id+"/status", map[string]any{"status": "running"})
	assert.Equal(t, fiber.StatusConflict, code)
	assert.NotEmpty(t, body["error"])

	code, _ = testutil.Call(t, app, owner, "PATCH", "/api/budgets/"+id, map[string]any{"name": "Food"})
	assert.Equal(t, fiber.StatusConflict, code, "completed budgets are read-only")

	code, _ = testutil.Call(t, app, owner, "DELETE", "/api/budgets/"+id, nil)
	assert.Equal(t, fiber.StatusConflict, code, "an expense still points at it")
}

func TestHandlerBudgetStatusMapping(t *testing.T) {
	f := newFixture(t)
	app := newApp(f)
	v := f.weekly(t, 1000)

	code, _ := testutil.Call(t, app, owner, "POST", "/api/budgets", map[string]any{"name": "x", "amount": 100, "duration": "fortnightly"})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = testutil.Call(t, app, owner, "POST", "/api/budgets/"+v.ID+"/status", map[string]any{"status": "archived"})
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = testutil.Call(t, app, owner, "GET", "/api/budgets/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = testutil.Call(t, app, "someone-else", "GET", "/api/budgets/"+v.ID, nil)
	assert.Equal(t, fiber.StatusNotFound, code, "budgets are scoped to their owner")

	code, _ = testutil.Call(t, app, "", "GET", "/api/budgets/"+v.ID, nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)

	code, _ = testutil.Call(t, app, owner, "DELETE", "/api/budgets/"+v.ID, nil)
	assert.Equal(t, fiber.StatusNoContent, code)
}

func TestHandlerSweepCompletesDueBudgets(t *testing.T) {
	f := newFixture(t)
	app := newApp(f)
	v := f.weekly(t, 1000)
	f.clk.Set(start.AddDate(0, 0, 8))

	code, rep := testutil.Call(t, app, owner, "POST", "/api/budgets/sweep", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 1, rep["completed"])

	got, err := f.led.Get(context.Background(), owner, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", string(got.Status))

	code, rep = testutil.Call(t, app, owner, "POST", "/api/budgets/sweep", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 0, rep["due"])
}
