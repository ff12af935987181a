package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
)

// monthOf renders a timestamp column as YYYY-MM in UTC.
func (s *Store) monthOf(col string) string {
	if s.dialect == Postgres {
		return `to_char(` + col + ` AT TIME ZONE 'UTC', 'YYYY-MM')`
	}
	return `substr(` + col + `, 1, 7)`
}

// SumExpensesByCategory groups the owner's expenses in [from, to), largest first.
func (s *Store) SumExpensesByCategory(ctx context.Context, ownerID string, from, to *time.Time) ([]domain.CategoryTotal, error) {
	q := `
		SELECT category, CAST(COALESCE(SUM(amount), 0) AS BIGINT), COUNT(*)
		FROM expenses
		WHERE owner_id = ?`
	args := []any{ownerID}
	if from != nil {
		q += ` AND occurred_at >= ?`
		args = append(args, s.t(*from))
	}
	if to != nil {
		q += ` AND occurred_at < ?`
		args = append(args, s.t(*to))
	}
	q += ` GROUP BY category ORDER BY 2 DESC, category ASC`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CategoryTotal, 0)
	for rows.Next() {
		var c domain.CategoryTotal
		if err := rows.Scan(&c.Category, &c.Total, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SumExpensesByMonth totals expenses per month from `from` on, oldest first.
func (s *Store) SumExpensesByMonth(ctx context.Context, ownerID string, from time.Time) ([]domain.MonthTotal, error) {
	m := s.monthOf("occurred_at")
	rows, err := s.query(ctx, `
		SELECT `+m+`, CAST(COALESCE(SUM(amount), 0) AS BIGINT)
		FROM expenses
		WHERE owner_id = ? AND occurred_at >= ?
		GROUP BY `+m+`
		ORDER BY 1 ASC`, ownerID, s.t(from))
	if err != nil {
		return nil, err
	}
	return collectMonths(rows)
}

// SumIncomesByMonth totals original income amounts per month from `from` on.
func (s *Store) SumIncomesByMonth(ctx context.Context, ownerID string, from time.Time) ([]domain.MonthTotal, error) {
	m := s.monthOf("occurred_at")
	rows, err := s.query(ctx, `
		SELECT `+m+`, CAST(COALESCE(SUM(original_amount), 0) AS BIGINT)
		FROM incomes
		WHERE owner_id = ? AND occurred_at >= ?
		GROUP BY `+m+`
		ORDER BY 1 ASC`, ownerID, s.t(from))
	if err != nil {
		return nil, err
	}
	return collectMonths(rows)
}

func collectMonths(rows *sql.Rows) ([]domain.MonthTotal, error) {
	defer rows.Close()
	out := make([]domain.MonthTotal, 0)
	for rows.Next() {
		var m domain.MonthTotal
		if err := rows.Scan(&m.Month, &m.Total); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SumOutstandingByKind reads cached party balances; it does not recompute them.
func (s *Store) SumOutstandingByKind(ctx context.Context, ownerID string) ([]domain.PartyKindTotal, error) {
	rows, err := s.query(ctx, `
		SELECT kind, CAST(COALESCE(SUM(outstanding), 0) AS BIGINT), COUNT(*)
		FROM parties
		WHERE owner_id = ?
		GROUP BY kind
		ORDER BY kind ASC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.PartyKindTotal, 0, 2)
	for rows.Next() {
		var (
			t    domain.PartyKindTotal
			kind string
		)
		if err := rows.Scan(&kind, &t.Outstanding, &t.Parties); err != nil {
			return nil, err
		}
		t.Kind = domain.PartyKind(kind)
		out = append(out, t)
	}
	return out, rows.Err()
}

// SumConnectedBalance is the remaining balance across connected incomes.
func (s *Store) SumConnectedBalance(ctx context.Context, ownerID string) (int64, error) {
	var total int64
	err := s.queryRow(ctx, `
		SELECT CAST(COALESCE(SUM(amount), 0) AS BIGINT)
		FROM incomes
		WHERE owner_id = ? AND is_connected = ?`, ownerID, true).Scan(&total)
	return total, err
}
