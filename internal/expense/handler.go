package expense

import (
	"github.com/gofiber/fiber/v2"

	apphttp "github.com/ishantswami13-crypto/vantro-khata/internal/http"
)

type Handler struct {
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Service: svc}
}

func (h *Handler) CreateExpense(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}

	var req CreateExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}
	amount, err := apphttp.Amount("amount", req.Amount, req.AmountRupees)
	if err != nil {
		return apphttp.Error(c, err)
	}
	date, err := apphttp.ParseDate("date", req.Date)
	if err != nil {
		return apphttp.Error(c, err)
	}

	res, err := h.Service.Create(apphttp.UserContext(c), userID, Input{
		Amount:         amount,
		Category:       req.Category,
		Reason:         req.Reason,
		Type:           req.Type,
		BudgetID:       req.BudgetID,
		Date:           date,
		IsRecurring:    req.IsRecurring,
		Frequency:      req.Frequency,
		AffectsBalance: req.AffectsBalance,
		IncomeID:       req.IncomeID,
	})
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// QuickExpense: POST /api/expenses/quick {"text": "250 food pizza"}
func (h *Handler) QuickExpense(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	var req QuickExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}
	date, err := apphttp.ParseDate("date", req.Date)
	if err != nil {
		return apphttp.Error(c, err)
	}
	res, err := h.Service.Quick(apphttp.UserContext(c), userID, req.Text, date)
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *Handler) ListExpenses(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	f, err := apphttp.ExpenseFilter(c)
	if err != nil {
		return apphttp.Error(c, err)
	}
	items, err := h.Service.List(apphttp.UserContext(c), userID, f)
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(items)
}

func (h *Handler) GetExpense(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	e, err := h.Service.Get(apphttp.UserContext(c), userID, c.Params("id"))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(e)
}

func (h *Handler) UpdateExpense(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	var req UpdateExpenseRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}
	patch := Patch{
		Amount:         req.Amount,
		Category:       req.Category,
		Reason:         req.Reason,
		Type:           req.Type,
		BudgetID:       req.BudgetID,
		IsRecurring:    req.IsRecurring,
		Frequency:      req.Frequency,
		AffectsBalance: req.AffectsBalance,
		IncomeID:       req.IncomeID,
	}
	if patch.Date, err = apphttp.ParseDatePtr("date", req.Date); err != nil {
		return apphttp.Error(c, err)
	}
	res, err := h.Service.Update(apphttp.UserContext(c), userID, c.Params("id"), patch)
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) DeleteExpense(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	if err := h.Service.Delete(apphttp.UserContext(c), userID, c.Params("id")); err != nil {
		return apphttp.Error(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
