package reports_test

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ishantswami13-crypto/vantro-khata/internal/analytics"
	"github.com/ishantswami13-crypto/vantro-khata/internal/budget"
	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/expense"
	apphttp "github.com/ishantswami13-crypto/vantro-khata/internal/http"
	"github.com/ishantswami13-crypto/vantro-khata/internal/income"
	"github.com/ishantswami13-crypto/vantro-khata/internal/ledger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/reports"
	"github.com/ishantswami13-crypto/vantro-khata/internal/testutil"
)

const owner = "owner-1"

var now = time.Date(2024, 9, 20, 12, 0, 0, 0, time.UTC)

func day(d int) time.Time {
	return time.Date(2024, 9, d, 10, 0, 0, 0, time.UTC)
}

func tx(id string, typ domain.TxType, amount int64, d int) domain.Transaction {
	return domain.Transaction{ID: id, Type: typ, Amount: amount, Date: day(d)}
}

func TestBuildStatementRunsBalance(t *testing.T) {
	party := ledger.PartyView{Party: domain.Party{ID: "p1", Kind: domain.Customer, Name: "Suresh"}}
	auto := tx("t3", domain.Payment, 40, 5)
	auto.AutoCreated = true
	txs := []domain.Transaction{
		tx("t4", domain.Payment, 30, 9),
		tx("t1", domain.Purchase, 100, 1),
		auto,
		tx("t2", domain.Purchase, 100, 5),
	}

	st := reports.BuildStatement(party, txs, nil, nil)
	require.Len(t, st.Rows, 4)
	assert.Equal(t, []int64{100, 200, 160, 130}, []int64{st.Rows[0].Balance, st.Rows[1].Balance, st.Rows[2].Balance, st.Rows[3].Balance})
	assert.Equal(t, "Paid at purchase", st.Rows[2].Description)
	assert.Equal(t, int64(40), st.Rows[2].Credit)
	assert.Equal(t, int64(200), st.Purchases)
	assert.Equal(t, int64(70), st.Payments)
	assert.Equal(t, int64(130), st.Closing)
	assert.Zero(t, st.Opening)

	from, to := day(5), day(9)
	window := reports.BuildStatement(party, txs, &from, &to)
	assert.Equal(t, int64(100), window.Opening)
	require.Len(t, window.Rows, 2)
	assert.Equal(t, int64(100), window.Purchases)
	assert.Equal(t, int64(40), window.Payments)
	assert.Equal(t, int64(160), window.Closing)
	assert.Equal(t, window.Opening+window.Purchases-window.Payments, window.Closing)
}

func TestRenderersProduceDocuments(t *testing.T) {
	party := ledger.PartyView{Party: domain.Party{ID: "p1", Kind: domain.Vendor, Name: "Wholesale Mart", Phone: "9876543210"}}
	st := reports.BuildStatement(party, []domain.Transaction{tx("t1", domain.Purchase, 123456, 1)}, nil, nil)

	pdf, err := reports.RenderStatementPDF(st, now)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	rep := analytics.CategoryReport{Total: 1000, Count: 2, Insight: "spread out", Categories: []analytics.CategoryShare{
		{Category: "food", Total: 600, Count: 1, Percent: 60},
		{Category: "bills", Total: 400, Count: 1, Percent: 40},
	}}
	monthly, err := reports.RenderMonthlyPDF("2024-09", rep)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(monthly, []byte("%PDF")))
}

func TestExpenseWorkbook(t *testing.T) {
	b := "budget-1"
	freq := "monthly"
	items := []domain.Expense{
		{Amount: 25050, Category: "food", Reason: "dinner", Type: domain.BudgetExpense, BudgetID: &b, Date: day(3)},
		{Amount: 99900, Category: "fixed", Reason: "rent", Type: domain.FreeExpense, IsRecurring: true, Frequency: &freq, Date: day(1)},
	}
	rep := analytics.CategoryReport{Total: 124950, Count: 2, Categories: []analytics.CategoryShare{
		{Category: "fixed", Total: 99900, Count: 1, Percent: 79.95},
		{Category: "food", Total: 25050, Count: 1, Percent: 20.05},
	}}

	raw, err := reports.ExpenseWorkbook(items, rep)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Expenses", "Categories"}, f.GetSheetList())
	rows, err := f.GetRows("Expenses")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Amount (Rs.)", rows[0][2])
	assert.Equal(t, []string{"2024-09-03", "food", "250.5", "dinner", "budget", "budget-1"}, rows[1][:6])
	assert.Equal(t, "monthly", rows[2][7])

	cats, err := f.GetRows("Categories")
	require.NoError(t, err)
	require.Len(t, cats, 4)
	assert.Equal(t, "fixed", cats[1][0])
	assert.Equal(t, []string{"Total", "1249.5", "2"}, cats[3])
}

func newApp(t *testing.T) (*fiber.App, *ledger.Engine, *expense.Service) {
	t.Helper()
	st := testutil.NewStore(t)
	clk := clock.NewManual(now)
	log := logger.Discard()
	agg := analytics.NewAggregator(st, clk, log, time.Minute)
	led := ledger.NewEngine(st, clk, log, agg)
	links := income.NewLinkEngine(st, clk, log)
	exp := expense.NewService(st, budget.NewLedger(st, clk, log, agg), links, clk, log, agg)
	h := reports.NewHandler(led, exp, agg, clk)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		if uid := c.Get("X-Test-User"); uid != "" {
			c.Locals("user_id", uid)
		}
		return c.Next()
	})
	app.Get("/api/parties/:id/statement", h.Statement)
	app.Get("/api/parties/:id/statement.pdf", h.StatementPDF)
	app.Get("/api/expenses/export.xlsx", h.ExpensesXLSX)
	app.Get("/api/reports/monthly.pdf", h.MonthlyPDF)
	return app, led, exp
}

func get(t *testing.T, app *fiber.App, path, user string) (int, string, []byte) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header.Get(fiber.HeaderContentType), body
}

func TestReportRoutes(t *testing.T) {
	app, led, exp := newApp(t)
	ctx := context.Background()

	p, err := led.CreateParty(ctx, owner, ledger.PartyInput{Kind: "customer", Name: "Suresh Kumar"})
	require.NoError(t, err)
	_, err = led.RecordPurchase(ctx, owner, p.ID, 10000, 4000, ledger.Meta{Description: "rice"})
	require.NoError(t, err)
	_, err = exp.Create(ctx, owner, expense.Input{Amount: 500, Category: "food", Date: day(2)})
	require.NoError(t, err)

	code, ctype, body := get(t, app, "/api/parties/"+p.ID+"/statement.pdf", owner)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "application/pdf", ctype)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	code, _, body = get(t, app, "/api/parties/"+p.ID+"/statement", owner)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Contains(t, string(body), `"closing":6000`)

	code, _, body = get(t, app, "/api/expenses/export.xlsx?from=2024-09-01&to=2024-09-30", owner)
	assert.Equal(t, fiber.StatusOK, code)
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	rows, err := f.GetRows("Expenses")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	require.NoError(t, f.Close())

	code, _, body = get(t, app, "/api/reports/monthly.pdf?month=2024-09", owner)
	assert.Equal(t, fiber.StatusOK, code)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	code, _, _ = get(t, app, "/api/reports/monthly.pdf?month=sept", owner)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _, _ = get(t, app, "/api/parties/"+p.ID+"/statement.pdf", "owner-2")
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _, _ = get(t, app, "/api/parties/"+p.ID+"/statement.pdf", "")
	assert.Equal(t, fiber.StatusUnauthorized, code)
}
