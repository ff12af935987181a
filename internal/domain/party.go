package domain

import (
	"strings"
	"time"
)

type PartyKind string

const (
	Customer PartyKind = "customer"
	Vendor   PartyKind = "vendor"
)

func ParsePartyKind(s string) (PartyKind, bool) {
	switch PartyKind(strings.ToLower(strings.TrimSpace(s))) {
	case Customer:
		return Customer, true
	case Vendor:
		return Vendor, true
	}
	return "", false
}

// Party is a customer or vendor with a running credit ledger. Outstanding is a
// cached value owned by the ledger engine: purchases minus payments.
type Party struct {
	ID          string    `db:"id" json:"id"`
	OwnerID     string    `db:"owner_id" json:"owner_id"`
	Kind        PartyKind `db:"kind" json:"kind"`
	Name        string    `db:"name" json:"name"`
	Phone       string    `db:"phone" json:"phone"`
	Address     *string   `db:"address" json:"address,omitempty"`
	CreditLimit *int64    `db:"credit_limit" json:"credit_limit,omitempty"`
	Outstanding int64     `db:"outstanding" json:"outstanding"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type TxType string

const (
	Purchase TxType = "purchase"
	Payment  TxType = "payment"
)

func ParseTxType(s string) (TxType, bool) {
	switch TxType(strings.ToLower(strings.TrimSpace(s))) {
	case Purchase:
		return Purchase, true
	case Payment:
		return Payment, true
	}
	return "", false
}

type LineItem struct {
	Name      string `json:"name"`
	Quantity  int64  `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Transaction is one purchase or payment on a party's ledger. A purchase with
// PaidAmount > 0 owns an auto-created payment joined through LinkedTransactionID.
type Transaction struct {
	ID                  string     `db:"id" json:"id"`
	OwnerID             string     `db:"owner_id" json:"owner_id"`
	PartyID             string     `db:"party_id" json:"party_id"`
	Type                TxType     `db:"type" json:"type"`
	Amount              int64      `db:"amount" json:"amount"`
	PaidAmount          int64      `db:"paid_amount" json:"paid_amount,omitempty"`
	Description         string     `db:"description" json:"description"`
	Items               []LineItem `db:"items" json:"items,omitempty"`
	PaymentMethod       string     `db:"payment_method" json:"payment_method,omitempty"`
	Date                time.Time  `db:"date" json:"date"`
	DueDate             *time.Time `db:"due_date" json:"due_date,omitempty"`
	LinkedTransactionID *string    `db:"linked_transaction_id" json:"linked_transaction_id,omitempty"`
	AutoCreated         bool       `db:"auto_created" json:"auto_created"`
	RequestID           *string    `db:"request_id" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// Totals is the from-source aggregate of one party's transactions.
type Totals struct {
	Purchases int64 `json:"purchases"`
	Payments  int64 `json:"payments"`
}

func (t Totals) Outstanding() int64 {
	return t.Purchases - t.Payments
}
