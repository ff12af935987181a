package sqlstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Postgres}
	lite := &Store{dialect: SQLite}

	q := `UPDATE t SET a = ? WHERE id = ? AND owner_id = ?`
	assert.Equal(t, `UPDATE t SET a = $1 WHERE id = $2 AND owner_id = $3`, pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestTimeBinding(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	v := time.Date(2024, 3, 1, 10, 30, 0, 0, ist)

	lite := &Store{dialect: SQLite}
	assert.Equal(t, "2024-03-01T05:00:00.000000Z", lite.t(v))

	pg := &Store{dialect: Postgres}
	got, ok := pg.t(v).(time.Time)
	require.True(t, ok)
	assert.True(t, got.Equal(v))
	assert.Equal(t, time.UTC, got.Location())

	assert.Nil(t, lite.tPtr(nil))
}

func TestScanTime(t *testing.T) {
	want := time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC)

	cases := []any{
		"2024-03-01T05:00:00.000000Z",
		[]byte("2024-03-01T05:00:00Z"),
		want.In(time.FixedZone("X", 3600)),
	}
	for _, c := range cases {
		var st scanTime
		require.NoError(t, st.Scan(c))
		assert.True(t, st.Valid)
		assert.True(t, st.T.Equal(want), "%v", c)
	}

	var st scanTime
	require.NoError(t, st.Scan(nil))
	assert.Nil(t, st.ptr())

	assert.Error(t, st.Scan("not a time"))
	assert.Error(t, st.Scan(42))
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 50, clampLimit(0, 50, 100))
	assert.Equal(t, 50, clampLimit(500, 50, 100))
	assert.Equal(t, 7, clampLimit(7, 50, 100))
}
