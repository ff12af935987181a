package sqlstore

import (
	"context"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
)

const incomeCols = `id, owner_id, original_amount, amount, source, category, description, occurred_at,
	is_connected, is_recurring, created_at, updated_at`

func scanIncome(row interface{ Scan(...any) error }) (domain.Income, error) {
	var (
		inc       domain.Income
		date      scanTime
		createdAt scanTime
		updatedAt scanTime
	)
	if err := row.Scan(&inc.ID, &inc.OwnerID, &inc.OriginalAmount, &inc.Amount, &inc.Source, &inc.Category,
		&inc.Description, &date, &inc.IsConnected, &inc.IsRecurring, &createdAt, &updatedAt); err != nil {
		return domain.Income{}, err
	}
	inc.Date = date.T
	inc.CreatedAt = createdAt.T
	inc.UpdatedAt = updatedAt.T
	return inc, nil
}

func (s *Store) InsertIncome(ctx context.Context, inc *domain.Income) error {
	inc.ID = newID(inc.ID)
	stamp(&inc.CreatedAt)
	stamp(&inc.UpdatedAt)
	_, err := s.exec(ctx, `
		INSERT INTO incomes (`+incomeCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inc.ID, inc.OwnerID, inc.OriginalAmount, inc.Amount, inc.Source, inc.Category, inc.Description,
		s.t(inc.Date), inc.IsConnected, inc.IsRecurring, s.t(inc.CreatedAt), s.t(inc.UpdatedAt),
	)
	return err
}

func (s *Store) GetIncome(ctx context.Context, ownerID, id string) (domain.Income, error) {
	inc, err := scanIncome(s.queryRow(ctx, `
		SELECT `+incomeCols+`
		FROM incomes
		WHERE id = ? AND owner_id = ?`, id, ownerID))
	if isNoRows(err) {
		return domain.Income{}, domain.NotFound("income", id)
	}
	return inc, err
}

func (s *Store) ListIncomes(ctx context.Context, ownerID string) ([]domain.Income, error) {
	rows, err := s.query(ctx, `
		SELECT `+incomeCols+`
		FROM incomes
		WHERE owner_id = ?
		ORDER BY occurred_at DESC, id ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIncomes(rows)
}

// ListConnectedIncomesPage walks every owner's connected incomes in id order.
func (s *Store) ListConnectedIncomesPage(ctx context.Context, afterID string, limit int) ([]domain.Income, error) {
	limit = clampLimit(limit, 200, 1000)
	rows, err := s.query(ctx, `
		SELECT `+incomeCols+`
		FROM incomes
		WHERE is_connected = ? AND id > ?
		ORDER BY id ASC
		LIMIT ?`, true, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectIncomes(rows)
}

func collectIncomes(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]domain.Income, error) {
	out := make([]domain.Income, 0)
	for rows.Next() {
		inc, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

// UpdateIncome writes everything except the derived remaining amount.
func (s *Store) UpdateIncome(ctx context.Context, inc domain.Income) error {
	n, err := s.exec(ctx, `
		UPDATE incomes
		SET original_amount = ?, source = ?, category = ?, description = ?, occurred_at = ?,
		    is_connected = ?, is_recurring = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		inc.OriginalAmount, inc.Source, inc.Category, inc.Description, s.t(inc.Date),
		inc.IsConnected, inc.IsRecurring, s.t(inc.UpdatedAt), inc.ID, inc.OwnerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("income", inc.ID)
	}
	return nil
}

func (s *Store) DeleteIncome(ctx context.Context, ownerID, id string) error {
	n, err := s.exec(ctx, `DELETE FROM incomes WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("income", id)
	}
	return nil
}

// RecomputeIncomeAmount stores original minus linked balance-affecting
// expenses (for connected incomes) in one statement and returns it.
func (s *Store) RecomputeIncomeAmount(ctx context.Context, ownerID, id string, at time.Time) (int64, error) {
	var amount int64
	err := s.queryRow(ctx, `
		UPDATE incomes SET
			amount = original_amount - CASE WHEN is_connected THEN (
				SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT)
				FROM expenses
				WHERE owner_id = ? AND income_id = ? AND affects_balance = ?) ELSE 0 END,
			updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING amount`,
		ownerID, id, true, s.t(at), id, ownerID).Scan(&amount)
	if isNoRows(err) {
		return 0, domain.NotFound("income", id)
	}
	return amount, err
}

// SwapIncomeAmount sets amount to next only if it still equals prev.
func (s *Store) SwapIncomeAmount(ctx context.Context, ownerID, id string, prev, next int64, at time.Time) (bool, error) {
	n, err := s.exec(ctx, `
		UPDATE incomes SET amount = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND amount = ?`, next, s.t(at), id, ownerID, prev)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// SumLinkedExpenses totals the balance-affecting expenses drawing on an income.
func (s *Store) SumLinkedExpenses(ctx context.Context, ownerID, incomeID string) (int64, error) {
	var total int64
	err := s.queryRow(ctx, `
		SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT)
		FROM expenses
		WHERE owner_id = ? AND income_id = ? AND affects_balance = ?`, ownerID, incomeID, true).Scan(&total)
	return total, err
}

func (s *Store) CountLinkedExpenses(ctx context.Context, ownerID, incomeID string) (int64, error) {
	var n int64
	err := s.queryRow(ctx, `
		SELECT COUNT(*) FROM expenses
		WHERE owner_id = ? AND income_id = ? AND affects_balance = ?`, ownerID, incomeID, true).Scan(&n)
	return n, err
}
