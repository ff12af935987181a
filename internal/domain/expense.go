package domain

import (
	"strings"
	"time"
)

type ExpenseType string

const (
	FreeExpense   ExpenseType = "free"
	BudgetExpense ExpenseType = "budget"
)

func ParseExpenseType(s string) (ExpenseType, bool) {
	switch ExpenseType(strings.ToLower(strings.TrimSpace(s))) {
	case FreeExpense, "":
		return FreeExpense, true
	case BudgetExpense:
		return BudgetExpense, true
	}
	return "", false
}

var frequencies = map[string]bool{"daily": true, "weekly": true, "monthly": true, "yearly": true}

func ValidFrequency(f string) bool {
	return frequencies[strings.ToLower(strings.TrimSpace(f))]
}

type Expense struct {
	ID             string      `db:"id" json:"id"`
	OwnerID        string      `db:"owner_id" json:"owner_id"`
	Amount         int64       `db:"amount" json:"amount"`
	Category       string      `db:"category" json:"category"`
	Reason         string      `db:"reason" json:"reason"`
	Type           ExpenseType `db:"type" json:"type"`
	BudgetID       *string     `db:"budget_id" json:"budget_id,omitempty"`
	Date           time.Time   `db:"date" json:"date"`
	IsRecurring    bool        `db:"is_recurring" json:"is_recurring"`
	Frequency      *string     `db:"frequency" json:"frequency,omitempty"`
	AffectsBalance bool        `db:"affects_balance" json:"affects_balance"`
	IncomeID       *string     `db:"income_id" json:"income_id,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// BudgetRef returns the budget this expense counts against, or "".
func (e Expense) BudgetRef() string {
	if e.Type != BudgetExpense || e.BudgetID == nil {
		return ""
	}
	return *e.BudgetID
}

// IncomeRef returns the connected income this expense draws from, or "".
func (e Expense) IncomeRef() string {
	if !e.AffectsBalance || e.IncomeID == nil {
		return ""
	}
	return *e.IncomeID
}

type ExpenseFilter struct {
	From     *time.Time
	To       *time.Time
	BudgetID string
	Category string
	Limit    int
}
