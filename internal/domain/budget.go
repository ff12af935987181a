package domain

import (
	"strings"
	"time"
)

type BudgetStatus string

const (
	BudgetRunning   BudgetStatus = "running"
	BudgetPaused    BudgetStatus = "paused"
	BudgetCompleted BudgetStatus = "completed"
)

func ParseBudgetStatus(s string) (BudgetStatus, bool) {
	switch BudgetStatus(strings.ToLower(strings.TrimSpace(s))) {
	case BudgetRunning:
		return BudgetRunning, true
	case BudgetPaused:
		return BudgetPaused, true
	case BudgetCompleted:
		return BudgetCompleted, true
	}
	return "", false
}

// CanTransition reports whether the lifecycle allows moving from s to next.
//
//	running   -> paused | completed
//	paused    -> running
//	completed -> (terminal)
func (s BudgetStatus) CanTransition(next BudgetStatus) bool {
	switch s {
	case BudgetRunning:
		return next == BudgetPaused || next == BudgetCompleted
	case BudgetPaused:
		return next == BudgetRunning
	}
	return false
}

type BudgetDuration string

const (
	Weekly  BudgetDuration = "weekly"
	Monthly BudgetDuration = "monthly"
	Custom  BudgetDuration = "custom"
)

func ParseBudgetDuration(s string) (BudgetDuration, bool) {
	switch BudgetDuration(strings.ToLower(strings.TrimSpace(s))) {
	case Weekly:
		return Weekly, true
	case Monthly:
		return Monthly, true
	case Custom:
		return Custom, true
	}
	return "", false
}

// Budget caps spending over a period. Spent is cached and frozen once the
// budget is completed.
type Budget struct {
	ID          string         `db:"id" json:"id"`
	OwnerID     string         `db:"owner_id" json:"owner_id"`
	Name        string         `db:"name" json:"name"`
	Amount      int64          `db:"amount" json:"amount"`
	Category    *string        `db:"category" json:"category,omitempty"`
	Duration    BudgetDuration `db:"duration" json:"duration"`
	StartDate   time.Time      `db:"start_date" json:"start_date"`
	EndDate     time.Time      `db:"end_date" json:"end_date"`
	Status      BudgetStatus   `db:"status" json:"status"`
	Spent       int64          `db:"spent" json:"spent"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
