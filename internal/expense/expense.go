package expense

import (
	"regexp"
	"strings"

	"github.com/ishantswami13-crypto/vantro-khata/internal/money"
)

// ---------------------------
// Quick entry (rule-based)
// ---------------------------

func normalizeCategory(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "misc"
	}
	return s
}

var amountRe = regexp.MustCompile(`(\d[\d,]*(\.\d+)?)`)

// parseQuickEntry reads free text like "250 food pizza", "uber 180" or
// "Spent 99.50 coffee": the first number is the amount in rupees, the rest
// becomes the reason and picks a category.
func parseQuickEntry(text string) (amount int64, category, reason string, ok bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, "", "", false
	}
	m := amountRe.FindStringSubmatch(t)
	if len(m) < 2 {
		return 0, "", "", false
	}
	amt, err := money.ParseRupees(m[1])
	if err != nil || amt <= 0 {
		return 0, "", "", false
	}

	idx := strings.Index(t, m[1])
	rest := strings.Join(strings.Fields(t[:idx]+" "+t[idx+len(m[1]):]), " ")
	return amt, guessCategory(strings.ToLower(rest)), rest, true
}

func guessCategory(s string) string {
	switch {
	case containsAny(s, "zomato", "swiggy", "food", "pizza", "burger", "coffee", "chai", "tea", "restaurant", "dinner", "lunch", "breakfast", "grocery"):
		return "food"
	case containsAny(s, "uber", "ola", "auto", "metro", "bus", "cab", "rapido", "petrol", "fuel"):
		return "transport"
	case containsAny(s, "rent", "emi", "loan", "school fee", "fees", "insurance"):
		return "fixed"
	case containsAny(s, "bill", "electricity", "gas", "water", "recharge", "wifi", "broadband"):
		return "bills"
	case containsAny(s, "netflix", "prime", "hotstar", "movie", "game", "spotify"):
		return "entertainment"
	case containsAny(s, "doctor", "medicine", "pharmacy", "gym", "protein"):
		return "health"
	case containsAny(s, "amazon", "flipkart", "shopping", "clothes", "shoes"):
		return "shopping"
	}
	return "misc"
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
