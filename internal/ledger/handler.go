package ledger

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	apphttp "github.com/ishantswami13-crypto/vantro-khata/internal/http"
)

type Handler struct {
	Engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{Engine: engine}
}

type partyRequest struct {
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	Phone       string  `json:"phone"`
	Address     *string `json:"address"`
	CreditLimit *int64  `json:"credit_limit"`
}

type partyPatchRequest struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	CreditLimit *int64  `json:"credit_limit"`
	ClearLimit  bool    `json:"clear_credit_limit"`
}

type txRequest struct {
	Amount        int64             `json:"amount"` // paise
	AmountRupees  string            `json:"amount_rupees"`
	PaidAmount    int64             `json:"paid_amount"`
	Description   string            `json:"description"`
	Items         []domain.LineItem `json:"items"`
	PaymentMethod string            `json:"payment_method"`
	Date          string            `json:"date"`
	DueDate       *string           `json:"due_date"`
	RequestID     string            `json:"request_id"`
}

type txPatchRequest struct {
	Type          *string            `json:"type"`
	Amount        *int64             `json:"amount"`
	PaidAmount    *int64             `json:"paid_amount"`
	Description   *string            `json:"description"`
	Items         *[]domain.LineItem `json:"items"`
	PaymentMethod *string            `json:"payment_method"`
	Date          *string            `json:"date"`
	DueDate       *string            `json:"due_date"`
}

func (h *Handler) CreateParty(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	var req partyRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}
	p, err := h.Engine.CreateParty(apphttp.UserContext(c), userID, PartyInput{
		Kind: req.Kind, Name: req.Name, Phone: req.Phone, Address: req.Address, CreditLimit: req.CreditLimit,
	})
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *Handler) ListParties(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	parties, err := h.Engine.ListParties(apphttp.UserContext(c), userID, c.Query("kind"))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(parties)
}

func (h *Handler) GetParty(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	p, err := h.Engine.GetParty(apphttp.UserContext(c), userID, c.Params("id"))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) UpdateParty(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	var req partyPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}
	p, err := h.Engine.UpdateParty(apphttp.UserContext(c), userID, c.Params("id"), PartyPatch{
		Name: req.Name, Phone: req.Phone, Address: req.Address, CreditLimit: req.CreditLimit, ClearLimit: req.ClearLimit,
	})
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) DeleteParty(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	if err := h.Engine.DeleteParty(apphttp.UserContext(c), userID, c.Params("id")); err != nil {
		return apphttp.Error(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) ListTransactions(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	txs, err := h.Engine.ListTransactions(apphttp.UserContext(c), userID, c.Params("id"))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(txs)
}

func (h *Handler) RecordPurchase(c *fiber.Ctx) error {
	return h.record(c, domain.Purchase)
}

func (h *Handler) RecordPayment(c *fiber.Ctx) error {
	return h.record(c, domain.Payment)
}

func (h *Handler) record(c *fiber.Ctx, typ domain.TxType) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	var req txRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}
	meta, amount, err := req.meta(c)
	if err != nil {
		return apphttp.Error(c, err)
	}

	ctx := apphttp.UserContext(c)
	var res Result
	if typ == domain.Purchase {
		res, err = h.Engine.RecordPurchase(ctx, userID, c.Params("id"), amount, req.PaidAmount, meta)
	} else {
		res, err = h.Engine.RecordPayment(ctx, userID, c.Params("id"), amount, meta)
	}
	if err != nil {
		return apphttp.Error(c, err)
	}
	if res.Replayed {
		return c.JSON(res)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (r txRequest) meta(c *fiber.Ctx) (Meta, int64, error) {
	amount, err := apphttp.Amount("amount", r.Amount, r.AmountRupees)
	if err != nil {
		return Meta{}, 0, err
	}
	date, err := apphttp.ParseDate("date", r.Date)
	if err != nil {
		return Meta{}, 0, err
	}
	due, err := apphttp.ParseDatePtr("due_date", r.DueDate)
	if err != nil {
		return Meta{}, 0, err
	}
	return Meta{
		Description:   r.Description,
		Items:         r.Items,
		PaymentMethod: r.PaymentMethod,
		Date:          date,
		DueDate:       due,
		RequestID:     apphttp.IdempotencyKey(c, r.RequestID),
	}, amount, nil
}

func (h *Handler) Recompute(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	b, err := h.Engine.Recompute(apphttp.UserContext(c), userID, c.Params("id"))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(b)
}

func (h *Handler) EditTransaction(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	var req txPatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apphttp.BadBody()
	}

	var patch Patch
	if req.Type != nil {
		t, ok := domain.ParseTxType(*req.Type)
		if !ok {
			return apphttp.Error(c, domain.Invalid("type", "must be purchase or payment"))
		}
		patch.Type = &t
	}
	if req.Date != nil {
		d, err := apphttp.ParseDate("date", *req.Date)
		if err != nil {
			return apphttp.Error(c, err)
		}
		if !d.IsZero() {
			patch.Date = &d
		}
	}
	if patch.DueDate, err = apphttp.ParseDatePtr("due_date", req.DueDate); err != nil {
		return apphttp.Error(c, err)
	}
	patch.Amount = req.Amount
	patch.PaidAmount = req.PaidAmount
	patch.Description = req.Description
	patch.Items = req.Items
	patch.PaymentMethod = req.PaymentMethod

	res, err := h.Engine.EditTransaction(apphttp.UserContext(c), userID, c.Params("id"), patch)
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) DeleteTransaction(c *fiber.Ctx) error {
	userID, err := apphttp.UserID(c)
	if err != nil {
		return err
	}
	b, err := h.Engine.DeleteTransaction(apphttp.UserContext(c), userID, c.Params("id"))
	if err != nil {
		return apphttp.Error(c, err)
	}
	return c.JSON(fiber.Map{"deleted": true, "balance": b})
}
