package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
)

const partyCols = `id, owner_id, kind, name, phone, address, credit_limit, outstanding, created_at, updated_at`

func scanParty(row interface{ Scan(...any) error }) (domain.Party, error) {
	var (
		p         domain.Party
		kind      string
		address   sql.NullString
		limit     sql.NullInt64
		createdAt scanTime
		updatedAt scanTime
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &kind, &p.Name, &p.Phone, &address, &limit, &p.Outstanding, &createdAt, &updatedAt); err != nil {
		return domain.Party{}, err
	}
	p.Kind = domain.PartyKind(kind)
	p.Address = strPtr(address)
	p.CreditLimit = intPtr(limit)
	p.CreatedAt = createdAt.T
	p.UpdatedAt = updatedAt.T
	return p, nil
}

func (s *Store) InsertParty(ctx context.Context, p *domain.Party) error {
	p.ID = newID(p.ID)
	stamp(&p.CreatedAt)
	stamp(&p.UpdatedAt)
	_, err := s.exec(ctx, `
		INSERT INTO parties (`+partyCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, string(p.Kind), p.Name, p.Phone, nullStr(p.Address), nullInt(p.CreditLimit),
		p.Outstanding, s.t(p.CreatedAt), s.t(p.UpdatedAt),
	)
	return err
}

func (s *Store) GetParty(ctx context.Context, ownerID, id string) (domain.Party, error) {
	p, err := scanParty(s.queryRow(ctx, `
		SELECT `+partyCols+`
		FROM parties
		WHERE id = ? AND owner_id = ?`, id, ownerID))
	if isNoRows(err) {
		return domain.Party{}, domain.NotFound("party", id)
	}
	return p, err
}

// ListParties returns the owner's parties by name; kind "" lists both kinds.
func (s *Store) ListParties(ctx context.Context, ownerID string, kind domain.PartyKind) ([]domain.Party, error) {
	q := `SELECT ` + partyCols + ` FROM parties WHERE owner_id = ?`
	args := []any{ownerID}
	if kind != "" {
		q += ` AND kind = ?`
		args = append(args, string(kind))
	}
	q += ` ORDER BY name ASC, id ASC`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Party, 0)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPartiesPage walks every owner's parties in id order for sweeps.
func (s *Store) ListPartiesPage(ctx context.Context, afterID string, limit int) ([]domain.Party, error) {
	limit = clampLimit(limit, 200, 1000)
	rows, err := s.query(ctx, `
		SELECT `+partyCols+`
		FROM parties
		WHERE id > ?
		ORDER BY id ASC
		LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Party, 0, limit)
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateParty writes the descriptive fields only; outstanding is never
// touched here.
func (s *Store) UpdateParty(ctx context.Context, p domain.Party) error {
	n, err := s.exec(ctx, `
		UPDATE parties
		SET name = ?, phone = ?, address = ?, credit_limit = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`,
		p.Name, p.Phone, nullStr(p.Address), nullInt(p.CreditLimit), s.t(p.UpdatedAt), p.ID, p.OwnerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("party", p.ID)
	}
	return nil
}

func (s *Store) DeleteParty(ctx context.Context, ownerID, id string) error {
	n, err := s.exec(ctx, `DELETE FROM parties WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("party", id)
	}
	return nil
}

// RecomputeOutstanding derives outstanding from the party's transactions and
// stores it in the same statement, so a sum read earlier can never land later.
func (s *Store) RecomputeOutstanding(ctx context.Context, ownerID, id string, at time.Time) (int64, error) {
	var outstanding int64
	err := s.queryRow(ctx, `
		UPDATE parties SET
			outstanding = (
				SELECT CAST(COALESCE(SUM(CASE WHEN type = 'purchase' THEN amount ELSE -amount END), 0) AS BIGINT)
				FROM ledger_transactions
				WHERE owner_id = ? AND party_id = ?),
			updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING outstanding`,
		ownerID, id, s.t(at), id, ownerID).Scan(&outstanding)
	if isNoRows(err) {
		return 0, domain.NotFound("party", id)
	}
	return outstanding, err
}

// SwapOutstanding sets outstanding to next only if it still equals prev.
func (s *Store) SwapOutstanding(ctx context.Context, ownerID, id string, prev, next int64, at time.Time) (bool, error) {
	n, err := s.exec(ctx, `
		UPDATE parties SET outstanding = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND outstanding = ?`,
		next, s.t(at), id, ownerID, prev)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
