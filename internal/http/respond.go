// Package http holds the fiber glue shared by the feature handlers: caller
// identity, request context and domain error mapping.
package http

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/money"
)

// UserID reads the owner id the auth middleware stored in locals.
func UserID(c *fiber.Ctx) (string, error) {
	val := c.Locals("user_id")
	if val == nil {
		val = c.Locals("userID")
	}
	if uid, ok := val.(string); ok && strings.TrimSpace(uid) != "" {
		return uid, nil
	}
	return "", fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
}

func UserContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// Error turns an engine error into a fiber error carrying the right status.
// Anything unclassified is logged and reported as a bare 500.
func Error(c *fiber.Ctx, err error) error {
	var (
		fe *fiber.Error
		ve *domain.ValidationError
		ne *domain.NotFoundError
		se *domain.InvalidStateError
	)
	switch {
	case errors.As(err, &fe):
		return fe
	case errors.As(err, &ve):
		return fiber.NewError(fiber.StatusBadRequest, ve.Error())
	case errors.As(err, &ne):
		return fiber.NewError(fiber.StatusNotFound, ne.Error())
	case errors.As(err, &se):
		return fiber.NewError(fiber.StatusConflict, se.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusServiceUnavailable, "request cancelled")
	}
	logger.L.Error("request failed", slog.String("method", c.Method()), slog.String("path", c.Path()), slog.Any("err", err))
	return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

// BadBody is returned when the JSON body cannot be decoded.
func BadBody() error {
	return fiber.NewError(fiber.StatusBadRequest, "invalid body")
}

// ParseDate accepts YYYY-MM-DD or RFC3339. Empty input yields the zero time.
func ParseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, domain.Invalid(field, "must be YYYY-MM-DD or RFC3339")
}

// ParseDatePtr is ParseDate for optional fields.
func ParseDatePtr(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := ParseDate(field, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// QueryInt reads a positive integer query parameter or returns def.
func QueryInt(c *fiber.Ctx, key string, def int) int {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Amount picks the paise value, or parses rupees when paise is absent.
func Amount(field string, paise int64, rupees string) (int64, error) {
	if paise != 0 || strings.TrimSpace(rupees) == "" {
		return paise, nil
	}
	v, err := money.ParseRupees(rupees)
	if err != nil {
		return 0, domain.Invalid(field, err.Error())
	}
	return v, nil
}

// IdempotencyKey reads the Idempotency-Key header, falling back to body.
func IdempotencyKey(c *fiber.Ctx, body string) string {
	if k := strings.TrimSpace(c.Get("Idempotency-Key")); k != "" {
		return k
	}
	return strings.TrimSpace(body)
}

// DateWindow reads the from and to query dates as a half-open window. A to
// date without a time covers that whole day.
func DateWindow(c *fiber.Ctx) (from, to *time.Time, err error) {
	f, err := ParseDate("from", c.Query("from"))
	if err != nil {
		return nil, nil, err
	}
	if !f.IsZero() {
		from = &f
	}
	raw := strings.TrimSpace(c.Query("to"))
	t, err := ParseDate("to", raw)
	if err != nil {
		return nil, nil, err
	}
	if !t.IsZero() {
		if len(raw) == len("2006-01-02") {
			t = t.AddDate(0, 0, 1)
		}
		to = &t
	}
	return from, to, nil
}

// ExpenseFilter reads budget_id, category and limit plus the DateWindow.
func ExpenseFilter(c *fiber.Ctx) (domain.ExpenseFilter, error) {
	f := domain.ExpenseFilter{
		BudgetID: strings.TrimSpace(c.Query("budget_id")),
		Category: strings.TrimSpace(c.Query("category")),
		Limit:    QueryInt(c, "limit", 0),
	}
	from, to, err := DateWindow(c)
	if err != nil {
		return f, err
	}
	f.From, f.To = from, to
	return f, nil
}
