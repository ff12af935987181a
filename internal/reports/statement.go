package reports

import (
	"sort"
	"time"

	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
	"github.com/ishantswami13-crypto/vantro-khata/internal/ledger"
)

// StatementRow is one transaction with the party balance after it.
// Purchases debit the party, payments credit it.
type StatementRow struct {
	ID          string        `json:"id"`
	Date        time.Time     `json:"date"`
	Type        domain.TxType `json:"type"`
	Description string        `json:"description"`
	Debit       int64         `json:"debit"`
	Credit      int64         `json:"credit"`
	Balance     int64         `json:"balance"`
	AutoCreated bool          `json:"auto_created,omitempty"`
}

type Statement struct {
	Party     ledger.PartyView `json:"party"`
	From      *time.Time       `json:"from,omitempty"`
	To        *time.Time       `json:"to,omitempty"`
	Opening   int64            `json:"opening"`
	Purchases int64            `json:"purchases"`
	Payments  int64            `json:"payments"`
	Closing   int64            `json:"closing"`
	Rows      []StatementRow   `json:"rows"`
}

// BuildStatement orders txs by date and runs the balance from the first one.
// Transactions before from only count toward the opening balance; those at
// or after to are left out. The closing balance is derived from the rows, so
// it matches a recompute even when the party's cached outstanding lags.
func BuildStatement(party ledger.PartyView, txs []domain.Transaction, from, to *time.Time) Statement {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	st := Statement{Party: party, From: from, To: to, Rows: make([]StatementRow, 0, len(sorted))}
	running := int64(0)
	for _, t := range sorted {
		if to != nil && !t.Date.Before(*to) {
			break
		}
		delta := t.Amount
		if t.Type == domain.Payment {
			delta = -t.Amount
		}
		running += delta
		if from != nil && t.Date.Before(*from) {
			st.Opening = running
			continue
		}

		row := StatementRow{
			ID:          t.ID,
			Date:        t.Date,
			Type:        t.Type,
			Description: t.Description,
			Balance:     running,
			AutoCreated: t.AutoCreated,
		}
		if t.Type == domain.Payment {
			row.Credit = t.Amount
			st.Payments += t.Amount
			if row.Description == "" && t.AutoCreated {
				row.Description = "Paid at purchase"
			}
		} else {
			row.Debit = t.Amount
			st.Purchases += t.Amount
		}
		st.Rows = append(st.Rows, row)
	}
	st.Closing = running
	return st
}

func owedBy(kind domain.PartyKind) string {
	if kind == domain.Vendor {
		return "you owe the vendor"
	}
	return "the customer owes you"
}
