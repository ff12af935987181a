package analytics

import (
	"github.com/gofiber/fiber/v2"

	apphttp "github.com/ishantswami13-crypto/vantro-khata/internal/http"
)

type Handler struct {
	Aggregator *Aggregator
}

func NewHandler(a *Aggregator) *Handler {
	return &Handler{Aggregator: a}
}

func (h *Handler) Overview(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	ov, err := h.Aggregator.Overview(apphttp.UserContext(c), userID)
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(ov)
}

// Categories: GET /api/analytics/categories?from=2024-07-01&to=2024-07-31
func (h *Handler) Categories(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	f, err := apphttp.ExpenseFilter(c)
	if err != nil {
		return apphttp.Error(c, err)
	}
	rep, err := h.Aggregator.CategoryTotals(apphttp.UserContext(c), userID, f.From, f.To)
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(rep)
}

// Trend: GET /api/analytics/trend?months=6
func (h *Handler) Trend(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	points, err := h.Aggregator.MonthlyTrend(apphttp.UserContext(c), userID, apphttp.QueryInt(c, "months", 6))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(fiber.Map{"months": points})
}
