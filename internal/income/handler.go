package income

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

func (h *Handler) CreateIncome(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}

	var req CreateIncomeRequest
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

	inc, err := h.Service.Create(apphttp.UserContext(c), userID, Input{
		Amount:      amount,
		Source:      req.Source,
		Category:    req.Category,
		Description: req.Description,
		Date:        date,
		IsConnected: req.IsConnected,
		IsRecurring: req.IsRecurring,
	})
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inc)
}

func (h *Handler) ListIncomes(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	incomes, err := h.Service.List(apphttp.UserContext(c), userID)
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(incomes)
}

func (h *Handler) GetIncome(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	inc, err := h.Service.Get(apphttp.UserContext(c), userID, c.Params("id"))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(inc)
}

func (h *Handler) UpdateIncome(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	var req UpdateIncomeRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}
	patch := Patch{
		Amount:      req.Amount,
		Source:      req.Source,
		Category:    req.Category,
		Description: req.Description,
		IsConnected: req.IsConnected,
		IsRecurring: req.IsRecurring,
	}
	if patch.Date, err = apphttp.ParseDatePtr("date", req.Date); err != nil {
		return apphttp.Error(c, err)
	}
	inc, err := h.Service.Update(apphttp.UserContext(c), userID, c.Params("id"), patch)
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(inc)
}

func (h *Handler) DeleteIncome(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	if err := h.Service.Delete(apphttp.UserContext(c), userID, c.Params("id")); err != nil {
		return apphttp.Error(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
