// Package ledger keeps each party's outstanding balance equal to the sum of
// its purchases minus its payments. Every mutation writes the detail record
// first and then re-derives outstanding from the full transaction set; the
// cached value is never patched by a delta.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ishantswami13-crypto/vantro-khata/internal/clock"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/logger"
	"github.com/ishantswami13-crypto/vantro-khata/internal/money"
)

type PartyStore interface {
	InsertParty(ctx context.Context, p *domain.Party) error
	GetParty(ctx context.Context, ownerID, id string) (domain.Party, error)
	ListParties(ctx context.Context, ownerID string, kind domain.PartyKind) ([]domain.Party, error)
	UpdateParty(ctx context.Context, p domain.Party) error
	DeleteParty(ctx context.Context, ownerID, id string) error
	RecomputeOutstanding(ctx context.Context, ownerID, id string, at time.Time) (int64, error)
}

type TransactionStore interface {
	InsertTransaction(ctx context.Context, t *domain.Transaction) error
	GetTransaction(ctx context.Context, ownerID, id string) (domain.Transaction, error)
	FindTransactionByRequestID(ctx context.Context, ownerID, requestID string) (domain.Transaction, error)
	UpdateTransaction(ctx context.Context, t domain.Transaction) error
	DeleteTransaction(ctx context.Context, ownerID, id string) error
	DeleteTransactionsByParty(ctx context.Context, ownerID, partyID string) (int64, error)
	ListTransactions(ctx context.Context, ownerID, partyID string) ([]domain.Transaction, error)
	SumTransactions(ctx context.Context, ownerID, partyID string) (domain.Totals, error)
}

type Store interface {
	PartyStore
	TransactionStore
}

type Engine struct {
	store  Store
	clock  clock.Clock
	log    *slog.Logger
	notify domain.ChangeNotifier
}

func NewEngine(store Store, clk clock.Clock, log *slog.Logger, notify domain.ChangeNotifier) *Engine {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if notify == nil {
		notify = domain.NopNotifier{}
	}
	return &Engine{store: store, clock: clk, log: logger.OrDefault(log).With("component", "ledger"), notify: notify}
}

// Balance is a party's freshly derived position. Pending means the derived
// value could not be persisted and Outstanding is the last stored one.
type Balance struct {
	PartyID     string `json:"party_id"`
	Purchases   int64  `json:"total_purchases"`
	Payments    int64  `json:"total_payments"`
	Outstanding int64  `json:"outstanding"`
	Pending     bool   `json:"balance_pending,omitempty"`
}

// Result is what a record or edit call hands back.
type Result struct {
	Transaction domain.Transaction  `json:"transaction"`
	Linked      *domain.Transaction `json:"linked_payment,omitempty"`
	Balance     Balance             `json:"balance"`
	Replayed    bool                `json:"replayed,omitempty"`
}

// Meta carries the descriptive fields of a purchase or payment.
type Meta struct {
	Description   string
	Items         []domain.LineItem
	PaymentMethod string
	Date          time.Time
	DueDate       *time.Time
	RequestID     string
}

// RecordPurchase books a purchase for the full amount. A non-zero paidAmount
// additionally books an auto-created payment linked to it, so the party owes
// amount - paidAmount more afterwards.
func (e *Engine) RecordPurchase(ctx context.Context, ownerID, partyID string, amount, paidAmount int64, meta Meta) (Result, error) {
	amount, err := amountFromItems(amount, meta.Items)
	if err != nil {
		return Result{}, err
	}
	if amount <= 0 {
		return Result{}, domain.Invalid("amount", "must be greater than zero")
	}
	if paidAmount < 0 || paidAmount > amount {
		return Result{}, domain.Invalid("paid_amount", "must be between 0 and amount")
	}
	return e.record(ctx, ownerID, partyID, domain.Purchase, amount, paidAmount, meta)
}

// RecordPayment books money received from (or paid to) a party. It is not
// capped by outstanding; overpayment leaves the party in credit.
func (e *Engine) RecordPayment(ctx context.Context, ownerID, partyID string, amount int64, meta Meta) (Result, error) {
	if amount <= 0 {
		return Result{}, domain.Invalid("amount", "must be greater than zero")
	}
	if len(meta.Items) > 0 {
		return Result{}, domain.Invalid("items", "only purchases carry items")
	}
	return e.record(ctx, ownerID, partyID, domain.Payment, amount, 0, meta)
}

func (e *Engine) record(ctx context.Context, ownerID, partyID string, typ domain.TxType, amount, paidAmount int64, meta Meta) (Result, error) {
	party, err := e.store.GetParty(ctx, ownerID, partyID)
	if err != nil {
		return Result{}, err
	}

	reqID := strings.TrimSpace(meta.RequestID)
	if reqID != "" {
		if res, ok, err := e.replay(ctx, ownerID, party.ID, reqID); err != nil || ok {
			return res, err
		}
	}

	date := meta.Date
	if date.IsZero() {
		date = e.clock.Now()
	}
	now := e.clock.Now()

	tx := domain.Transaction{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		PartyID:       party.ID,
		Type:          typ,
		Amount:        amount,
		PaidAmount:    paidAmount,
		Description:   strings.TrimSpace(meta.Description),
		Items:         meta.Items,
		PaymentMethod: strings.TrimSpace(meta.PaymentMethod),
		Date:          date,
		DueDate:       meta.DueDate,
		CreatedAt:     now,
	}
	if reqID != "" {
		tx.RequestID = &reqID
	}

	var linked *domain.Transaction
	if paidAmount > 0 {
		p := autoPayment(tx, paidAmount, now)
		linked = &p
		tx.LinkedTransactionID = &p.ID
	}

	if err := e.store.InsertTransaction(ctx, &tx); err != nil {
		if reqID != "" {
			// lost a race with a retry of the same request
			res, ok, rerr := e.replay(ctx, ownerID, party.ID, reqID)
			if rerr != nil && domain.IsValidation(rerr) {
				return Result{}, rerr
			}
			if rerr == nil && ok {
				return res, nil
			}
		}
		return Result{}, fmt.Errorf("insert %s: %w", typ, err)
	}

	if linked != nil {
		if err := e.store.InsertTransaction(ctx, linked); err != nil {
			if derr := e.store.DeleteTransaction(ctx, ownerID, tx.ID); derr != nil {
				e.log.Error("purchase left without its payment", "transaction_id", tx.ID, "err", derr)
			}
			return Result{}, fmt.Errorf("insert linked payment: %w", err)
		}
	}

	e.notify.Changed(ownerID)
	return Result{Transaction: tx, Linked: linked, Balance: e.settle(ctx, party)}, nil
}

// replay returns the transaction an earlier call stored under reqID. A key
// reused for a different party is rejected rather than replayed.
func (e *Engine) replay(ctx context.Context, ownerID, partyID, reqID string) (Result, bool, error) {
	prev, err := e.store.FindTransactionByRequestID(ctx, ownerID, reqID)
	if domain.IsNotFound(err) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("lookup request id: %w", err)
	}
	if prev.PartyID != partyID {
		return Result{}, false, domain.Invalid("request_id", "already used for another party")
	}
	res := Result{Transaction: prev, Replayed: true}
	if prev.LinkedTransactionID != nil {
		if l, err := e.store.GetTransaction(ctx, ownerID, *prev.LinkedTransactionID); err == nil {
			res.Linked = &l
		}
	}
	party, err := e.store.GetParty(ctx, ownerID, prev.PartyID)
	if err != nil {
		return Result{}, false, err
	}
	res.Balance = e.settle(ctx, party)
	return res, true, nil
}

func autoPayment(purchase domain.Transaction, amount int64, now time.Time) domain.Transaction {
	purchaseID := purchase.ID
	return domain.Transaction{
		ID:                  uuid.NewString(),
		OwnerID:             purchase.OwnerID,
		PartyID:             purchase.PartyID,
		Type:                domain.Payment,
		Amount:              amount,
		Description:         "Paid at purchase",
		PaymentMethod:       purchase.PaymentMethod,
		Date:                purchase.Date,
		LinkedTransactionID: &purchaseID,
		AutoCreated:         true,
		CreatedAt:           now,
	}
}

// amountFromItems fills a zero amount from the line items.
func amountFromItems(amount int64, items []domain.LineItem) (int64, error) {
	if len(items) == 0 {
		return amount, nil
	}
	parts := make([]int64, 0, len(items))
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return 0, domain.Invalid(fmt.Sprintf("items[%d].name", i), "required")
		}
		if it.Quantity <= 0 || it.UnitPrice < 0 {
			return 0, domain.Invalid(fmt.Sprintf("items[%d]", i), "quantity must be positive and unit_price not negative")
		}
		line, err := money.Mul(it.Quantity, it.UnitPrice)
		if err != nil {
			return 0, domain.Invalid(fmt.Sprintf("items[%d]", i), "quantity times unit_price is too large")
		}
		parts = append(parts, line)
	}
	if amount != 0 {
		return amount, nil
	}
	total, err := money.Sum(parts...)
	if err != nil {
		return 0, domain.Invalid("items", err.Error())
	}
	return total, nil
}

// Recompute derives outstanding from the party's current transactions and
// stores it. Calling it twice with no writes in between gives the same value.
func (e *Engine) Recompute(ctx context.Context, ownerID, partyID string) (Balance, error) {
	if _, err := e.store.GetParty(ctx, ownerID, partyID); err != nil {
		return Balance{}, err
	}
	return e.recompute(ctx, ownerID, partyID)
}

func (e *Engine) recompute(ctx context.Context, ownerID, partyID string) (Balance, error) {
	outstanding, err := e.store.RecomputeOutstanding(ctx, ownerID, partyID, e.clock.Now())
	if err != nil {
		return Balance{}, fmt.Errorf("store outstanding: %w", err)
	}
	totals, err := e.store.SumTransactions(ctx, ownerID, partyID)
	if err != nil {
		return Balance{}, fmt.Errorf("sum transactions: %w", err)
	}
	return Balance{PartyID: partyID, Purchases: totals.Purchases, Payments: totals.Payments, Outstanding: outstanding}, nil
}

// settle recomputes after a successful detail write. A failure here is not the
// caller's failure: the write stands and the balance is flagged pending until
// the next mutation or a reconciliation sweep catches up.
func (e *Engine) settle(ctx context.Context, party domain.Party) Balance {
	b, err := e.recompute(ctx, party.OwnerID, party.ID)
	if err == nil {
		return b
	}
	e.log.Warn("outstanding not refreshed", "owner_id", party.OwnerID, "party_id", party.ID, "err", err)
	return Balance{PartyID: party.ID, Outstanding: party.Outstanding, Pending: true}
}

// Patch lists the fields an edit may change; nil leaves a field alone.
type Patch struct {
	Type          *domain.TxType
	Amount        *int64
	PaidAmount    *int64
	Description   *string
	Items         *[]domain.LineItem
	PaymentMethod *string
	Date          *time.Time
	DueDate       *time.Time
}

// EditTransaction applies patch and re-derives outstanding. Changing a
// purchase's paid amount creates, resizes or drops its linked payment.
func (e *Engine) EditTransaction(ctx context.Context, ownerID, txID string, patch Patch) (Result, error) {
	cur, err := e.store.GetTransaction(ctx, ownerID, txID)
	if err != nil {
		return Result{}, err
	}
	if cur.AutoCreated {
		return Result{}, domain.InvalidState("transaction", txID, "payment was recorded with its purchase; edit the purchase instead")
	}
	party, err := e.store.GetParty(ctx, ownerID, cur.PartyID)
	if err != nil {
		return Result{}, err
	}

	next := cur
	if patch.Type != nil {
		next.Type = *patch.Type
	}
	if patch.Amount != nil {
		next.Amount = *patch.Amount
	}
	if patch.PaidAmount != nil {
		next.PaidAmount = *patch.PaidAmount
	}
	if patch.Description != nil {
		next.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Items != nil {
		next.Items = *patch.Items
	}
	if patch.PaymentMethod != nil {
		next.PaymentMethod = strings.TrimSpace(*patch.PaymentMethod)
	}
	if patch.Date != nil {
		next.Date = *patch.Date
	}
	if patch.DueDate != nil {
		next.DueDate = patch.DueDate
	}

	if _, ok := domain.ParseTxType(string(next.Type)); !ok {
		return Result{}, domain.Invalid("type", "must be purchase or payment")
	}
	if next.Amount, err = amountFromItems(next.Amount, next.Items); err != nil {
		return Result{}, err
	}
	if next.Amount <= 0 {
		return Result{}, domain.Invalid("amount", "must be greater than zero")
	}
	if next.Type == domain.Payment {
		if len(next.Items) > 0 && patch.Items != nil {
			return Result{}, domain.Invalid("items", "only purchases carry items")
		}
		next.PaidAmount = 0
	}
	if next.PaidAmount < 0 || next.PaidAmount > next.Amount {
		return Result{}, domain.Invalid("paid_amount", "must be between 0 and amount")
	}

	now := e.clock.Now()
	var oldLinked *domain.Transaction
	if cur.LinkedTransactionID != nil {
		l, err := e.store.GetTransaction(ctx, ownerID, *cur.LinkedTransactionID)
		switch {
		case err == nil:
			oldLinked = &l
		case !domain.IsNotFound(err):
			return Result{}, err
		}
	}

	var linked *domain.Transaction
	switch {
	case next.PaidAmount > 0 && oldLinked != nil:
		l := *oldLinked
		l.Amount = next.PaidAmount
		l.Date = next.Date
		l.PaymentMethod = next.PaymentMethod
		if err := e.store.UpdateTransaction(ctx, next); err != nil {
			return Result{}, fmt.Errorf("update transaction: %w", err)
		}
		if err := e.store.UpdateTransaction(ctx, l); err != nil {
			return Result{}, fmt.Errorf("update linked payment: %w", err)
		}
		linked = &l
	case next.PaidAmount > 0:
		l := autoPayment(next, next.PaidAmount, now)
		next.LinkedTransactionID = &l.ID
		if err := e.store.UpdateTransaction(ctx, next); err != nil {
			return Result{}, fmt.Errorf("update transaction: %w", err)
		}
		if err := e.store.InsertTransaction(ctx, &l); err != nil {
			return Result{}, fmt.Errorf("insert linked payment: %w", err)
		}
		linked = &l
	default:
		next.LinkedTransactionID = nil
		if err := e.store.UpdateTransaction(ctx, next); err != nil {
			return Result{}, fmt.Errorf("update transaction: %w", err)
		}
		if oldLinked != nil {
			if err := e.store.DeleteTransaction(ctx, ownerID, oldLinked.ID); err != nil && !domain.IsNotFound(err) {
				return Result{}, fmt.Errorf("delete linked payment: %w", err)
			}
		}
	}

	e.notify.Changed(ownerID)
	return Result{Transaction: next, Linked: linked, Balance: e.settle(ctx, party)}, nil
}

// DeleteTransaction removes a transaction together with its link partner
// where that applies: a purchase takes its auto-created payment with it, and
// removing an auto-created payment clears the purchase's paid amount.
func (e *Engine) DeleteTransaction(ctx context.Context, ownerID, txID string) (Balance, error) {
	cur, err := e.store.GetTransaction(ctx, ownerID, txID)
	if err != nil {
		return Balance{}, err
	}
	party, err := e.store.GetParty(ctx, ownerID, cur.PartyID)
	if err != nil && !domain.IsNotFound(err) {
		return Balance{}, err
	}

	if err := e.store.DeleteTransaction(ctx, ownerID, txID); err != nil {
		return Balance{}, err
	}

	if cur.LinkedTransactionID != nil {
		linkedID := *cur.LinkedTransactionID
		switch {
		case cur.Type == domain.Purchase:
			if err := e.store.DeleteTransaction(ctx, ownerID, linkedID); err != nil && !domain.IsNotFound(err) {
				e.log.Warn("linked payment not removed", "transaction_id", linkedID, "err", err)
			}
		case cur.AutoCreated:
			if err := e.detachPayment(ctx, ownerID, linkedID); err != nil {
				e.log.Warn("purchase paid amount not cleared", "transaction_id", linkedID, "err", err)
			}
		}
	}

	e.notify.Changed(ownerID)
	if party.ID == "" {
		return Balance{PartyID: cur.PartyID}, nil
	}
	return e.settle(ctx, party), nil
}

func (e *Engine) detachPayment(ctx context.Context, ownerID, purchaseID string) error {
	p, err := e.store.GetTransaction(ctx, ownerID, purchaseID)
	if domain.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	p.PaidAmount = 0
	p.LinkedTransactionID = nil
	return e.store.UpdateTransaction(ctx, p)
}

// PartyView is a party plus its advisory credit-limit flag.
type PartyView struct {
	domain.Party
	OverLimit bool `json:"over_limit"`
}

func view(p domain.Party) PartyView {
	return PartyView{Party: p, OverLimit: p.CreditLimit != nil && p.Outstanding > *p.CreditLimit}
}

type PartyInput struct {
	Kind        string
	Name        string
	Phone       string
	Address     *string
	CreditLimit *int64
}

func (e *Engine) CreateParty(ctx context.Context, ownerID string, in PartyInput) (PartyView, error) {
	kind, ok := domain.ParsePartyKind(in.Kind)
	if !ok {
		return PartyView{}, domain.Invalid("kind", "must be customer or vendor")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return PartyView{}, domain.Invalid("name", "required")
	}
	if in.CreditLimit != nil && *in.CreditLimit < 0 {
		return PartyView{}, domain.Invalid("credit_limit", "must not be negative")
	}
	now := e.clock.Now()
	p := domain.Party{
		OwnerID:     ownerID,
		Kind:        kind,
		Name:        name,
		Phone:       strings.TrimSpace(in.Phone),
		Address:     trimPtr(in.Address),
		CreditLimit: in.CreditLimit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.InsertParty(ctx, &p); err != nil {
		return PartyView{}, fmt.Errorf("insert party: %w", err)
	}
	e.notify.Changed(ownerID)
	return view(p), nil
}

func (e *Engine) GetParty(ctx context.Context, ownerID, id string) (PartyView, error) {
	p, err := e.store.GetParty(ctx, ownerID, id)
	if err != nil {
		return PartyView{}, err
	}
	return view(p), nil
}

func (e *Engine) ListParties(ctx context.Context, ownerID, kind string) ([]PartyView, error) {
	var k domain.PartyKind
	if strings.TrimSpace(kind) != "" {
		var ok bool
		if k, ok = domain.ParsePartyKind(kind); !ok {
			return nil, domain.Invalid("kind", "must be customer or vendor")
		}
	}
	parties, err := e.store.ListParties(ctx, ownerID, k)
	if err != nil {
		return nil, err
	}
	out := make([]PartyView, 0, len(parties))
	for _, p := range parties {
		out = append(out, view(p))
	}
	return out, nil
}

// PartyPatch edits descriptive fields; outstanding is not editable.
type PartyPatch struct {
	Name        *string
	Phone       *string
	Address     *string
	CreditLimit *int64
	ClearLimit  bool
}

func (e *Engine) UpdateParty(ctx context.Context, ownerID, id string, patch PartyPatch) (PartyView, error) {
	p, err := e.store.GetParty(ctx, ownerID, id)
	if err != nil {
		return PartyView{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return PartyView{}, domain.Invalid("name", "required")
		}
		p.Name = name
	}
	if patch.Phone != nil {
		p.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Address != nil {
		p.Address = trimPtr(patch.Address)
	}
	if patch.CreditLimit != nil {
		if *patch.CreditLimit < 0 {
			return PartyView{}, domain.Invalid("credit_limit", "must not be negative")
		}
		p.CreditLimit = patch.CreditLimit
	}
	if patch.ClearLimit {
		p.CreditLimit = nil
	}
	p.UpdatedAt = e.clock.Now()
	if err := e.store.UpdateParty(ctx, p); err != nil {
		return PartyView{}, err
	}
	e.notify.Changed(ownerID)
	return view(p), nil
}

// DeleteParty removes the party's transactions, then the party.
func (e *Engine) DeleteParty(ctx context.Context, ownerID, id string) error {
	if _, err := e.store.GetParty(ctx, ownerID, id); err != nil {
		return err
	}
	n, err := e.store.DeleteTransactionsByParty(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete party transactions: %w", err)
	}
	if err := e.store.DeleteParty(ctx, ownerID, id); err != nil {
		return err
	}
	e.log.Info("party deleted", "owner_id", ownerID, "party_id", id, "transactions", n)
	e.notify.Changed(ownerID)
	return nil
}

func (e *Engine) ListTransactions(ctx context.Context, ownerID, partyID string) ([]domain.Transaction, error) {
	if _, err := e.store.GetParty(ctx, ownerID, partyID); err != nil {
		return nil, err
	}
	return e.store.ListTransactions(ctx, ownerID, partyID)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
