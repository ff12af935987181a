package reports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ishantswami13-crypto/vantro-khata/internal/analytics"
	"github.com/ishantswami13-crypto/vantro-khata/internal/domain"
)

const (
	expenseSheet  = "Expenses"
	categorySheet = "Categories"
)

// ExpenseWorkbook writes one row per expense plus a category summary sheet.
// Amounts are rupees as numbers so spreadsheet sums work.
func ExpenseWorkbook(expenses []domain.Expense, summary analytics.CategoryReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", expenseSheet); err != nil {
		return nil, err
	}
	headers := []string{"Date", "Category", "Amount (Rs.)", "Reason", "Type", "Budget", "Income", "Recurring"}
	for i, h := range headers {
		if err := f.SetCellValue(expenseSheet, fmt.Sprintf("%c1", 'A'+i), h); err != nil {
			return nil, err
		}
	}

	for idx, e := range expenses {
		row := idx + 2
		recurring := ""
		if e.IsRecurring && e.Frequency != nil {
			recurring = *e.Frequency
		}
		values := []any{
			e.Date.Format("2006-01-02"),
			e.Category,
			rupees(e.Amount),
			e.Reason,
			string(e.Type),
			deref(e.BudgetID),
			deref(e.IncomeID),
			recurring,
		}
		for i, v := range values {
			if err := f.SetCellValue(expenseSheet, fmt.Sprintf("%c%d", 'A'+i, row), v); err != nil {
				return nil, err
			}
		}
	}
	_ = f.SetColWidth(expenseSheet, "A", "A", 12)
	_ = f.SetColWidth(expenseSheet, "B", "B", 15)
	_ = f.SetColWidth(expenseSheet, "C", "C", 14)
	_ = f.SetColWidth(expenseSheet, "D", "D", 30)
	_ = f.SetColWidth(expenseSheet, "F", "G", 38)

	if _, err := f.NewSheet(categorySheet); err != nil {
		return nil, err
	}
	for i, h := range []string{"Category", "Amount (Rs.)", "Count", "%"} {
		if err := f.SetCellValue(categorySheet, fmt.Sprintf("%c1", 'A'+i), h); err != nil {
			return nil, err
		}
	}
	for n, c := range summary.Categories {
		row := n + 2
		for i, v := range []any{c.Category, rupees(c.Total), c.Count, c.Percent} {
			if err := f.SetCellValue(categorySheet, fmt.Sprintf("%c%d", 'A'+i, row), v); err != nil {
				return nil, err
			}
		}
	}
	total := len(summary.Categories) + 2
	_ = f.SetCellValue(categorySheet, fmt.Sprintf("A%d", total), "Total")
	_ = f.SetCellValue(categorySheet, fmt.Sprintf("B%d", total), rupees(summary.Total))
	_ = f.SetCellValue(categorySheet, fmt.Sprintf("C%d", total), summary.Count)
	_ = f.SetColWidth(categorySheet, "A", "A", 18)
	_ = f.SetColWidth(categorySheet, "B", "B", 14)

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rupees(paise int64) float64 {
	return float64(paise) / 100
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
