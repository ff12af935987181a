package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidMoney = errors.New("invalid money amount")
)

var hundred = decimal.NewFromInt(100)

// maxRupees keeps paise inside int64: int64 max ~9e18 => rupees max ~9e16.
var maxRupees = decimal.NewFromInt(90_000_000_000_000_000)

// RupeesToPaise converts a rupee value (like 12.34) to paise as int64 safely.
// Use ONLY when you must parse user-entered decimal rupees.
// Prefer sending paise directly from frontend.
func RupeesToPaise(rupees float64) (int64, error) {
	if math.IsNaN(rupees) || math.IsInf(rupees, 0) {
		return 0, ErrInvalidMoney
	}
	return fromDecimal(decimal.NewFromFloat(rupees))
}

// ParseRupees parses a decimal rupee string ("250", "250.5", "1,200.75").
// More than two fractional digits are rounded half away from zero.
func ParseRupees(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, ErrInvalidMoney
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidMoney, err)
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, ErrInvalidMoney
	}
	if d.GreaterThan(maxRupees) {
		return 0, fmt.Errorf("%w: too large", ErrInvalidMoney)
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

func PaiseToRupeesString(paise int64) string {
	// Lightweight formatting without float: 123.45 style string
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	rs := paise / 100
	ps := paise % 100
	return fmt.Sprintf("%s%d.%02d", sign, rs, ps)
}

// Percent returns part/whole*100 rounded to two places; zero when whole is not positive.
func Percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	p := decimal.NewFromInt(part).Mul(hundred).Div(decimal.NewFromInt(whole)).Round(2)
	f, _ := p.Float64()
	return f
}

// Sum adds amounts, refusing to wrap around.
func Sum(amounts ...int64) (int64, error) {
	var total int64
	for _, a := range amounts {
		next := total + a
		if (a > 0 && next < total) || (a < 0 && next > total) {
			return 0, fmt.Errorf("%w: overflow", ErrInvalidMoney)
		}
		total = next
	}
	return total, nil
}

// Mul multiplies two amounts (a quantity and a unit price), refusing to wrap around.
func Mul(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, fmt.Errorf("%w: overflow", ErrInvalidMoney)
	}
	return p, nil
}
