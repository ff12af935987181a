package sqlstore

import (
	"context"
	"database/sql"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
)

const expenseCols = `id, owner_id, amount, category, reason, type, budget_id, occurred_at, is_recurring, frequency,
	affects_balance, income_id, created_at, updated_at`

func scanExpense(row interface{ Scan(...any) error }) (domain.Expense, error) {
	var (
		e         domain.Expense
		typ       string
		budgetID  sql.NullString
		date      scanTime
		frequency sql.NullString
		incomeID  sql.NullString
		createdAt scanTime
		updatedAt scanTime
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &e.Amount, &e.Category, &e.Reason, &typ, &budgetID, &date, &e.IsRecurring,
		&frequency, &e.AffectsBalance, &incomeID, &createdAt, &updatedAt); err != nil {
		return domain.Expense{}, err
	}
	e.Type = domain.ExpenseType(typ)
	e.BudgetID = strPtr(budgetID)
	e.Date = date.T
	e.Frequency = strPtr(frequency)
	e.IncomeID = strPtr(incomeID)
	e.CreatedAt = createdAt.T
	e.UpdatedAt = updatedAt.T
	return e, nil
}

func (s *Store) InsertExpense(ctx context.Context, e *domain.Expense) error {
	e.ID = newID(e.ID)
	stamp(&e.CreatedAt)
	stamp(&e.UpdatedAt)
	_, err := s.exec(ctx, `
		INSERT INTO expenses (`+expenseCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Amount, e.Category, e.Reason, string(e.Type), nullStr(e.BudgetID), s.t(e.Date),
		e.IsRecurring, nullStr(e.Frequency), e.AffectsBalance, nullStr(e.IncomeID), s.t(e.CreatedAt), s.t(e.UpdatedAt),
	)
	return err
}

func (s *Store) GetExpense(ctx context.Context, ownerID, id string) (domain.Expense, error) {
	e, err := scanExpense(s.queryRow(ctx, `
		SELECT `+expenseCols+`
		FROM expenses
		WHERE id = ? AND owner_id = ?`, id, ownerID))
	if isNoRows(err) {
		return domain.Expense{}, domain.NotFound("expense", id)
	}
	return e, err
}

func (s *Store) UpdateExpense(ctx context.Context, e domain.Expense) error {
	n, err := s.exec(ctx, `
		UPDATE expenses
		SET amount = ?, category = ?, reason = ?, type = ?, budget_id = ?, occurred_at = ?, is_recurring = ?,
		    frequency = ?, affects_balance = ?, income_id = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		e.Amount, e.Category, e.Reason, string(e.Type), nullStr(e.BudgetID), s.t(e.Date), e.IsRecurring,
		nullStr(e.Frequency), e.AffectsBalance, nullStr(e.IncomeID), s.t(e.UpdatedAt), e.ID, e.OwnerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("expense", e.ID)
	}
	return nil
}

func (s *Store) DeleteExpense(ctx context.Context, ownerID, id string) error {
	n, err := s.exec(ctx, `DELETE FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("expense", id)
	}
	return nil
}

// ListExpenses returns the owner's expenses newest first.
func (s *Store) ListExpenses(ctx context.Context, ownerID string, f domain.ExpenseFilter) ([]domain.Expense, error) {
	q := `SELECT ` + expenseCols + ` FROM expenses WHERE owner_id = ?`
	args := []any{ownerID}
	if f.From != nil {
		q += ` AND occurred_at >= ?`
		args = append(args, s.t(*f.From))
	}
	if f.To != nil {
		q += ` AND occurred_at < ?`
		args = append(args, s.t(*f.To))
	}
	if f.BudgetID != "" {
		q += ` AND budget_id = ?`
		args = append(args, f.BudgetID)
	}
	if f.Category != "" {
		q += ` AND category = ?`
		args = append(args, f.Category)
	}
	q += ` ORDER BY occurred_at DESC, id ASC LIMIT ?`
	args = append(args, clampLimit(f.Limit, 500, 5000))

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
