package domain

import "time"

// Income is money received. For a connected income, Amount is the remaining
// spendable balance: OriginalAmount minus every linked balance-affecting
// expense. Only the balance link engine writes Amount.
type Income struct {
	ID             string    `db:"id" json:"id"`
	OwnerID        string    `db:"owner_id" json:"owner_id"`
	OriginalAmount int64     `db:"original_amount" json:"original_amount"`
	Amount         int64     `db:"amount" json:"amount"`
	Source         string    `db:"source" json:"source"`
	Category       string    `db:"category" json:"category"`
	Description    string    `db:"description" json:"description"`
	Date           time.Time `db:"date" json:"date"`
	IsConnected    bool      `db:"is_connected" json:"is_connected"`
	IsRecurring    bool      `db:"is_recurring" json:"is_recurring"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
