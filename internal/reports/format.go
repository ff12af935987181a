package reports

import (
	"strconv"
	"strings"
)

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func trimTo(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// formatMoney renders paise as rupees grouped in thousands:
// 123456789 -> "1,234,567.89".
func formatMoney(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return sign + withCommas(paise/100) + "." + twoDigits(paise%100)
}

func twoDigits(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

func withCommas(n int64) string {
	str := strconv.FormatInt(n, 10)
	s := make([]byte, 0, len(str)+len(str)/3)
	l := len(str)
	for i := 0; i < l; i++ {
		s = append(s, str[i])
		rem := l - i - 1
		if rem > 0 && rem%3 == 0 {
			s = append(s, ',')
		}
	}
	return string(s)
}
