package domain

// CategoryTotal is the expense total of one category over a range.
type CategoryTotal struct {
	Category string `json:"category"`
	Total    int64  `json:"total"`
	Count    int64  `json:"count"`
}

// MonthTotal is a sum for one calendar month, keyed "YYYY-MM" in UTC.
type MonthTotal struct {
	Month string `json:"month"`
	Total int64  `json:"total"`
}

// PartyKindTotal sums the cached outstanding of every party of one kind.
type PartyKindTotal struct {
	Kind        PartyKind `json:"kind"`
	Outstanding int64     `json:"outstanding"`
	Parties     int64     `json:"parties"`
}
