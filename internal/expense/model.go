package expense

type CreateExpenseRequest struct {
	Amount         int64   `json:"amount"` // paise
	AmountRupees   string  `json:"amount_rupees"`
	Category       string  `json:"category"`
	Reason         string  `json:"reason"`
	Type           string  `json:"type"`
	BudgetID       *string `json:"budget_id"`
	Date           string  `json:"date"` // YYYY-MM-DD or RFC3339
	IsRecurring    bool    `json:"is_recurring"`
	Frequency      *string `json:"frequency"`
	AffectsBalance bool    `json:"affects_balance"`
	IncomeID       *string `json:"income_id"`
}

type QuickExpenseRequest struct {
	Text string `json:"text"`
	Date string `json:"date"`
}

type UpdateExpenseRequest struct {
	Amount         *int64  `json:"amount"`
	Category       *string `json:"category"`
	Reason         *string `json:"reason"`
	Type           *string `json:"type"`
	BudgetID       *string `json:"budget_id"`
	Date           *string `json:"date"`
	IsRecurring    *bool   `json:"is_recurring"`
	Frequency      *string `json:"frequency"`
	AffectsBalance *bool   `json:"affects_balance"`
	IncomeID       *string `json:"income_id"`
}
