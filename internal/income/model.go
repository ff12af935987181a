package income

type CreateIncomeRequest struct {
	Amount       int64  `json:"amount"` // paise
	AmountRupees string `json:"amount_rupees"`
	Source       string `json:"source"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	Date         string `json:"date"`
	IsConnected  bool   `json:"is_connected"`
	IsRecurring  bool   `json:"is_recurring"`
}

type UpdateIncomeRequest struct {
	Amount      *int64  `json:"amount"`
	Source      *string `json:"source"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	IsConnected *bool   `json:"is_connected"`
	IsRecurring *bool   `json:"is_recurring"`
}
