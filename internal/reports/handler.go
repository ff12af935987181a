// Package reports renders statements and exports from data the engines
// already hold. It never writes.
package reports

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/vantro-khata/internal/analytics"
	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	apphttp "github.com/ishantswami13-crypto/vantro-khata/internal/http"
	"github.com/ishantswami13-crypto/vantro-khata/internal/ledger"
)

type Parties interface {
	GetParty(ctx context.Context, ownerID, id string) (ledger.PartyView, error)
	ListTransactions(ctx context.Context, ownerID, partyID string) ([]domain.Transaction, error)
}

type Expenses interface {
	List(ctx context.Context, ownerID string, f domain.ExpenseFilter) ([]domain.Expense, error)
}

type Categories interface {
	CategoryTotals(ctx context.Context, ownerID string, from, to *time.Time) (analytics.CategoryReport, error)
}

type Handler struct {
	Parties    Parties
	Expenses   Expenses
	Categories Categories
	Clock      clock.Clock
}

func NewHandler(parties Parties, expenses Expenses, categories Categories, clk clock.Clock) *Handler {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Handler{Parties: parties, Expenses: expenses, Categories: categories, Clock: clk}
}

func (h *Handler) statement(c *fiber.Ctx) (Statement, error) {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return Statement{}, err
	}
	from, to, err := apphttp.DateWindow(c)
	if err != nil {
		return Statement{}, apphttp.Error(c, err)
	}
	ctx := apphttp.UserContext(c)
	party, err := h.Parties.GetParty(ctx, userID, c.Params("id"))
	if err != nil {
		return Statement{}, apphttp.Error(c, err)
	}
	txs, err := h.Parties.ListTransactions(ctx, userID, party.ID)
	if err != nil {
		return Statement{}, apphttp.Error(c, err)
	}
	return BuildStatement(party, txs, from, to), nil
}

// Statement: GET /api/parties/:id/statement?from=&to=
func (h *Handler) Statement(c *fiber.Ctx) error {
	st, err := h.statement(c)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// StatementPDF: GET /api/parties/:id/statement.pdf?from=&to=
func (h *Handler) StatementPDF(c *fiber.Ctx) error {
	st, err := h.statement(c)
	if err != nil {
		return err
	}
	out, err := RenderStatementPDF(st, h.Clock.Now())
	if err != nil {
		return apphttp.Error(c, err)
	}
	filename := "statement-" + slug(st.Party.Name) + "-" + h.Clock.Now().Format("20060102") + ".pdf"
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(out)
}

// ExpensesXLSX: GET /api/expenses/export.xlsx?from=&to=&category=&budget_id=
func (h *Handler) ExpensesXLSX(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	f, err := apphttp.ExpenseFilter(c)
	if err != nil {
		return apphttp.Error(c, err)
	}
	if f.Limit == 0 {
		f.Limit = 5000
	}
	ctx := apphttp.UserContext(c)
	items, err := h.Expenses.List(ctx, userID, f)
	if err != nil {
		return apphttp.Error(c, err)
	}
	summary, err := h.Categories.CategoryTotals(ctx, userID, f.From, f.To)
	if err != nil {
		return apphttp.Error(c, err)
	}
	out, err := ExpenseWorkbook(items, summary)
	if err != nil {
		return apphttp.Error(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="expenses_`+h.Clock.Now().Format("20060102")+`.xlsx"`)
	return c.Send(out)
}

// MonthlyPDF: GET /api/reports/monthly.pdf?month=2024-09 (defaults to the current month)
func (h *Handler) MonthlyPDF(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	start, end, err := monthRange(c.Query("month"), h.Clock.Now())
	if err != nil {
		return apphttp.Error(c, err)
	}
	rep, err := h.Categories.CategoryTotals(apphttp.UserContext(c), userID, &start, &end)
	if err != nil {
		return apphttp.Error(c, err)
	}
	month := start.Format("2006-01")
	out, err := RenderMonthlyPDF(month, rep)
	if err != nil {
		return apphttp.Error(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="expenses-`+month+`.pdf"`)
	return c.Send(out)
}

func monthRange(raw string, now time.Time) (time.Time, time.Time, error) {
	raw = strings.TrimSpace(raw)
	var start time.Time
	if raw == "" {
		now = now.UTC()
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			return time.Time{}, time.Time{}, domain.Invalid("month", "must be YYYY-MM")
		}
		start = t.UTC()
	}
	return start, start.AddDate(0, 1, 0), nil
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "party"
	}
	return b.String()
}
