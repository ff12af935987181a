package budget

import (
	"github.com/gofiber/fiber/v2"

	apphttp "github.com/ishantswami13-crypto/vantro-khata/internal/http"
)

type Handler struct {
	Ledger    *Ledger
	Scheduler *Scheduler
}

func NewHandler(ledger *Ledger, scheduler *Scheduler) *Handler {
	return &Handler{Ledger: ledger, Scheduler: scheduler}
}

type createRequest struct {
	Name         string  `json:"name"`
	Amount       int64   `json:"amount"` // paise
	AmountRupees string  `json:"amount_rupees"`
	Category     *string `json:"category"`
	Duration     string  `json:"duration"`
	StartDate    string  `json:"start_date"`
	EndDate      *string `json:"end_date"`
	Status       string  `json:"status"`
}

type patchRequest struct {
	Name     *string `json:"name"`
	Amount   *int64  `json:"amount"`
	Category *string `json:"category"`
	EndDate  *string `json:"end_date"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) Create(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}
	amount, err := apphttp.Amount("amount", req.Amount, req.AmountRupees)
	if err != nil {
		return apphttp.Error(c, err)
	}
	start, err := apphttp.ParseDate("start_date", req.StartDate)
	if err != nil {
		return apphttp.Error(c, err)
	}
	end, err := apphttp.ParseDatePtr("end_date", req.EndDate)
	if err != nil {
		return apphttp.Error(c, err)
	}

	v, err := h.Ledger.Create(apphttp.UserContext(c), userID, Input{
		Name: req.Name, Amount: amount, Category: req.Category, Duration: req.Duration,
		StartDate: start, EndDate: end, Status: req.Status,
	})
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(v)
}

func (h *Handler) List(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	list, err := h.Ledger.List(apphttp.UserContext(c), userID, c.Query("status"))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) Get(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	v, err := h.Ledger.Get(apphttp.UserContext(c), userID, c.Params("id"))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(v)
}

func (h *Handler) Update(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	var req patchRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}
	end, err := apphttp.ParseDatePtr("end_date", req.EndDate)
	if err != nil {
		return apphttp.Error(c, err)
	}
	v, err := h.Ledger.Update(apphttp.UserContext(c), userID, c.Params("id"), Patch{
		Name: req.Name, Amount: req.Amount, Category: req.Category, EndDate: end,
	})
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(v)
}

func (h *Handler) SetStatus(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}
	v, err := h.Ledger.SetStatus(apphttp.UserContext(c), userID, c.Params("id"), req.Status)
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(v)
}

func (h *Handler) Delete(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	if err := h.Ledger.Delete(apphttp.UserContext(c), userID, c.Params("id")); err != nil {
		return apphttp.Error(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Sweep lets a client poll trigger the scheduler; it is safe to call often.
func (h *Handler) Sweep(c *fiber.Ctx) error {
	if _, err := apphttp.UserID(c); err != nil {
		return err
	}
	rep, err := h.Scheduler.Sweep(apphttp.UserContext(c))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(rep)
}
