package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/vantro-khata/internal/analytics"
	"github.com/ishantswami13-crypto/vantro-khata/internal/budget"
	"github.com/ishantswami13-crypto/vantro-khata/internal/expense"
	"github.com/ishantswami13-crypto/vantro-khata/internal/income"
	"github.com/ishantswami13-crypto/vantro-khata/internal/ledger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/reports"
)

type Router struct {
	LedgerHandler    *ledger.Handler
	BudgetHandler    *budget.Handler
	ExpenseHandler   *expense.Handler
	IncomeHandler    *income.Handler
	AnalyticsHandler *analytics.Handler
	ReportsHandler   *reports.Handler
	DevTokenHandler  fiber.Handler // nil outside ENV=dev
	AuthMW           fiber.Handler
	WriteLimitMW     fiber.Handler
}

func (r *Router) RegisterRoutes(app *fiber.App) {
	if r.DevTokenHandler != nil {
		app.Get("/dev/token", RateLimitAuth(), r.DevTokenHandler)
	}

	mw := []fiber.Handler{}
	if r.AuthMW != nil {
		mw = append(mw, r.AuthMW)
	}
	if r.WriteLimitMW != nil {
		mw = append(mw, r.WriteLimitMW)
	}
	api := app.Group("/api", mw...)

	if h := r.LedgerHandler; h != nil {
		api.Post("/parties", h.CreateParty)
		api.Get("/parties", h.ListParties)
		api.Get("/parties/:id", h.GetParty)
		api.Patch("/parties/:id", h.UpdateParty)
		api.Delete("/parties/:id", h.DeleteParty)
		api.Get("/parties/:id/transactions", h.ListTransactions)
		api.Post("/parties/:id/purchases", h.RecordPurchase)
		api.Post("/parties/:id/payments", h.RecordPayment)
		api.Post("/parties/:id/recompute", h.Recompute)
		api.Patch("/transactions/:id", h.EditTransaction)
		api.Delete("/transactions/:id", h.DeleteTransaction)
	}

	if h := r.ReportsHandler; h != nil {
		api.Get("/parties/:id/statement", h.Statement)
		api.Get("/parties/:id/statement.pdf", h.StatementPDF)
		api.Get("/expenses/export.xlsx", h.ExpensesXLSX)
		api.Get("/reports/monthly.pdf", h.MonthlyPDF)
	}

	if h := r.BudgetHandler; h != nil {
		api.Post("/budgets/sweep", h.Sweep)
		api.Post("/budgets", h.Create)
		api.Get("/budgets", h.List)
		api.Get("/budgets/:id", h.Get)
		api.Patch("/budgets/:id", h.Update)
		api.Delete("/budgets/:id", h.Delete)
		api.Post("/budgets/:id/status", h.SetStatus)
	}

	if h := r.ExpenseHandler; h != nil {
		api.Post("/expenses/quick", h.QuickExpense)
		api.Post("/expenses", h.CreateExpense)
		api.Get("/expenses", h.ListExpenses)
		api.Get("/expenses/:id", h.GetExpense)
		api.Patch("/expenses/:id", h.UpdateExpense)
		api.Delete("/expenses/:id", h.DeleteExpense)
	}

	if h := r.IncomeHandler; h != nil {
		api.Post("/incomes", h.CreateIncome)
		api.Get("/incomes", h.ListIncomes)
		api.Get("/incomes/:id", h.GetIncome)
		api.Patch("/incomes/:id", h.UpdateIncome)
		api.Delete("/incomes/:id", h.DeleteIncome)
	}

	if h := r.AnalyticsHandler; h != nil {
		api.Get("/analytics/overview", h.Overview)
		api.Get("/analytics/categories", h.Categories)
		api.Get("/analytics/trend", h.Trend)
	}
}
