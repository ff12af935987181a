package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
)

const txCols = `id, owner_id, party_id, type, amount, paid_amount, description, items, payment_method,
	occurred_at, due_at, linked_transaction_id, auto_created, request_id, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (domain.Transaction, error) {
	var (
		t         domain.Transaction
		typ       string
		items     sql.NullString
		date      scanTime
		due       scanTime
		linked    sql.NullString
		requestID sql.NullString
		createdAt scanTime
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.PartyID, &typ, &t.Amount, &t.PaidAmount, &t.Description, &items,
		&t.PaymentMethod, &date, &due, &linked, &t.AutoCreated, &requestID, &createdAt); err != nil {
		return domain.Transaction{}, err
	}
	t.Type = domain.TxType(typ)
	if items.Valid && items.String != "" {
		if err := json.Unmarshal([]byte(items.String), &t.Items); err != nil {
			return domain.Transaction{}, fmt.Errorf("decode items of %s: %w", t.ID, err)
		}
	}
	t.Date = date.T
	t.DueDate = due.ptr()
	t.LinkedTransactionID = strPtr(linked)
	t.RequestID = strPtr(requestID)
	t.CreatedAt = createdAt.T
	return t, nil
}

func encodeItems(items []domain.LineItem) (any, error) {
	if len(items) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Store) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	t.ID = newID(t.ID)
	stamp(&t.CreatedAt)
	items, err := encodeItems(t.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	_, err = s.exec(ctx, `
		INSERT INTO ledger_transactions (`+txCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.PartyID, string(t.Type), t.Amount, t.PaidAmount, t.Description, items, t.PaymentMethod,
		s.t(t.Date), s.tPtr(t.DueDate), nullStr(t.LinkedTransactionID), t.AutoCreated, nullStr(t.RequestID), s.t(t.CreatedAt),
	)
	return err
}

func (s *Store) GetTransaction(ctx context.Context, ownerID, id string) (domain.Transaction, error) {
	t, err := scanTransaction(s.queryRow(ctx, `
		SELECT `+txCols+`
		FROM ledger_transactions
		WHERE id = ? AND owner_id = ?`, id, ownerID))
	if isNoRows(err) {
		return domain.Transaction{}, domain.NotFound("transaction", id)
	}
	return t, err
}

func (s *Store) FindTransactionByRequestID(ctx context.Context, ownerID, requestID string) (domain.Transaction, error) {
	t, err := scanTransaction(s.queryRow(ctx, `
		SELECT `+txCols+`
		FROM ledger_transactions
		WHERE owner_id = ? AND request_id = ?`, ownerID, requestID))
	if isNoRows(err) {
		return domain.Transaction{}, domain.NotFound("transaction", requestID)
	}
	return t, err
}

func (s *Store) UpdateTransaction(ctx context.Context, t domain.Transaction) error {
	items, err := encodeItems(t.Items)
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	n, err := s.exec(ctx, `
		UPDATE ledger_transactions
		SET type = ?, amount = ?, paid_amount = ?, description = ?, items = ?, payment_method = ?,
		    occurred_at = ?, due_at = ?, linked_transaction_id = ?
		WHERE id = ? AND owner_id = ?`,
		string(t.Type), t.Amount, t.PaidAmount, t.Description, items, t.PaymentMethod,
		s.t(t.Date), s.tPtr(t.DueDate), nullStr(t.LinkedTransactionID), t.ID, t.OwnerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("transaction", t.ID)
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	n, err := s.exec(ctx, `DELETE FROM ledger_transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("transaction", id)
	}
	return nil
}

func (s *Store) DeleteTransactionsByParty(ctx context.Context, ownerID, partyID string) (int64, error) {
	return s.exec(ctx, `DELETE FROM ledger_transactions WHERE owner_id = ? AND party_id = ?`, ownerID, partyID)
}

// ListTransactions returns a party's ledger oldest first.
func (s *Store) ListTransactions(ctx context.Context, ownerID, partyID string) ([]domain.Transaction, error) {
	rows, err := s.query(ctx, `
		SELECT `+txCols+`
		FROM ledger_transactions
		WHERE owner_id = ? AND party_id = ?
		ORDER BY occurred_at ASC, created_at ASC, id ASC`, ownerID, partyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumTransactions aggregates the party's current transaction set.
func (s *Store) SumTransactions(ctx context.Context, ownerID, partyID string) (domain.Totals, error) {
	var t domain.Totals
	err := s.queryRow(ctx, `
		SELECT
			CAST(COALESCE(SUM(CASE WHEN type = 'purchase' THEN amount ELSE 0 END), 0) AS BIGINT),
			CAST(COALESCE(SUM(CASE WHEN type = 'payment' THEN amount ELSE 0 END), 0) AS BIGINT)
		FROM ledger_transactions
		WHERE owner_id = ? AND party_id = ?`, ownerID, partyID).Scan(&t.Purchases, &t.Payments)
	return t, err
}
