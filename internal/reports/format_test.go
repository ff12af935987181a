package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0.00", formatMoney(0))
	assert.Equal(t, "0.05", formatMoney(5))
	assert.Equal(t, "1,234,567.89", formatMoney(123456789))
	assert.Equal(t, "-100.50", formatMoney(-10050))
	assert.Equal(t, "999.00", formatMoney(99900))
}

func TestTrimAndIDs(t *testing.T) {
	assert.Equal(t, "abcdefgh", shortID("abcdefgh-1234"))
	assert.Equal(t, "abc", shortID(" abc "))
	assert.Equal(t, "hello", trimTo("hello", 10))
	assert.Equal(t, "hello w...", trimTo("hello world again", 10))
}

func TestMonthRange(t *testing.T) {
	now := time.Date(2024, 9, 15, 10, 0, 0, 0, time.UTC)
	start, end, err := monthRange("", now)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), end)

	start, end, err = monthRange("2023-12", now)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), end)

	_, _, err = monthRange("sept", now)
	assert.Error(t, err)
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "sharma-traders", slug("Sharma Traders"))
	assert.Equal(t, "party", slug("!!!"))
}
