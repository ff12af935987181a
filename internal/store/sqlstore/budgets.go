package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
)

const budgetCols = `id, owner_id, name, amount, category, duration, start_at, end_at, status, spent, completed_at, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (domain.Budget, error) {
	var (
		b         domain.Budget
		category  sql.NullString
		duration  string
		status    string
		start     scanTime
		end       scanTime
		completed scanTime
		createdAt scanTime
		updatedAt scanTime
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Amount, &category, &duration, &start, &end, &status,
		&b.Spent, &completed, &createdAt, &updatedAt); err != nil {
		return domain.Budget{}, err
	}
	b.Category = strPtr(category)
	b.Duration = domain.BudgetDuration(duration)
	b.Status = domain.BudgetStatus(status)
	b.StartDate = start.T
	b.EndDate = end.T
	b.CompletedAt = completed.ptr()
	b.CreatedAt = createdAt.T
	b.UpdatedAt = updatedAt.T
	return b, nil
}

func (s *Store) InsertBudget(ctx context.Context, b *domain.Budget) error {
	b.ID = newID(b.ID)
	stamp(&b.CreatedAt)
	stamp(&b.UpdatedAt)
	_, err := s.exec(ctx, `
		INSERT INTO budgets (`+budgetCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Name, b.Amount, nullStr(b.Category), string(b.Duration), s.t(b.StartDate), s.t(b.EndDate),
		string(b.Status), b.Spent, s.tPtr(b.CompletedAt), s.t(b.CreatedAt), s.t(b.UpdatedAt),
	)
	return err
}

func (s *Store) GetBudget(ctx context.Context, ownerID, id string) (domain.Budget, error) {
	b, err := scanBudget(s.queryRow(ctx, `
		SELECT `+budgetCols+`
		FROM budgets
		WHERE id = ? AND owner_id = ?`, id, ownerID))
	if isNoRows(err) {
		return domain.Budget{}, domain.NotFound("budget", id)
	}
	return b, err
}

// ListBudgets returns the owner's budgets, newest start first; status "" lists all.
func (s *Store) ListBudgets(ctx context.Context, ownerID string, status domain.BudgetStatus) ([]domain.Budget, error) {
	q := `SELECT ` + budgetCols + ` FROM budgets WHERE owner_id = ?`
	args := []any{ownerID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, string(status))
	}
	q += ` ORDER BY start_at DESC, id ASC`
	return s.listBudgets(ctx, q, args...)
}

// ListDueBudgets returns running budgets of any owner whose end date is before now.
func (s *Store) ListDueBudgets(ctx context.Context, now time.Time, limit int) ([]domain.Budget, error) {
	limit = clampLimit(limit, 500, 5000)
	return s.listBudgets(ctx, `
		SELECT `+budgetCols+`
		FROM budgets
		WHERE status = ? AND end_at < ?
		ORDER BY end_at ASC, id ASC
		LIMIT ?`, string(domain.BudgetRunning), s.t(now), limit)
}

func (s *Store) listBudgets(ctx context.Context, q string, args ...any) ([]domain.Budget, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateBudget writes descriptive fields of a budget that is not completed.
// It reports false when the budget is missing or already completed.
func (s *Store) UpdateBudget(ctx context.Context, b domain.Budget) (bool, error) {
	n, err := s.exec(ctx, `
		UPDATE budgets
		SET name = ?, amount = ?, category = ?, end_at = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND status <> ?`,
		b.Name, b.Amount, nullStr(b.Category), s.t(b.EndDate), s.t(b.UpdatedAt),
		b.ID, b.OwnerID, string(domain.BudgetCompleted))
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RecomputeBudgetSpent re-derives spent from the budget's expenses and stores
// it in one statement. Completed budgets are left alone and report false.
func (s *Store) RecomputeBudgetSpent(ctx context.Context, ownerID, id string, at time.Time) (int64, bool, error) {
	var spent int64
	err := s.queryRow(ctx, `
		UPDATE budgets SET
			spent = (
				SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT)
				FROM expenses
				WHERE owner_id = ? AND budget_id = ? AND type = ?),
			updated_at = ?
		WHERE id = ? AND owner_id = ? AND status <> ?
		RETURNING spent`,
		ownerID, id, string(domain.BudgetExpense), s.t(at), id, ownerID, string(domain.BudgetCompleted)).Scan(&spent)
	if isNoRows(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return spent, true, nil
}

// TransitionBudget moves status from -> to in one conditional write, so the
// check of the current status happens at write time. When to is completed the
// given spent is frozen alongside. Reports false if the status was no longer from.
func (s *Store) TransitionBudget(ctx context.Context, ownerID, id string, from, to domain.BudgetStatus, spent int64, at time.Time) (bool, error) {
	var (
		n   int64
		err error
	)
	if to == domain.BudgetCompleted {
		n, err = s.exec(ctx, `
			UPDATE budgets SET status = ?, spent = ?, completed_at = ?, updated_at = ?
			WHERE id = ? AND owner_id = ? AND status = ?`,
			string(to), spent, s.t(at), s.t(at), id, ownerID, string(from))
	} else {
		n, err = s.exec(ctx, `
			UPDATE budgets SET status = ?, updated_at = ?
			WHERE id = ? AND owner_id = ? AND status = ?`,
			string(to), s.t(at), id, ownerID, string(from))
	}
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *Store) DeleteBudget(ctx context.Context, ownerID, id string) error {
	n, err := s.exec(ctx, `DELETE FROM budgets WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("budget", id)
	}
	return nil
}

// SumBudgetExpenses is the from-source spent of a budget.
func (s *Store) SumBudgetExpenses(ctx context.Context, ownerID, budgetID string) (int64, error) {
	var total int64
	err := s.queryRow(ctx, `
		SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT)
		FROM expenses
		WHERE owner_id = ? AND budget_id = ? AND type = ?`,
		ownerID, budgetID, string(domain.BudgetExpense)).Scan(&total)
	return total, err
}

func (s *Store) CountBudgetExpenses(ctx context.Context, ownerID, budgetID string) (int64, error) {
	var n int64
	err := s.queryRow(ctx, `
		SELECT COUNT(*) FROM expenses
		WHERE owner_id = ? AND budget_id = ?`, ownerID, budgetID).Scan(&n)
	return n, err
}
