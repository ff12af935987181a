package reports

import (
	"bytes"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
)

const maxPDFRows = 500

var statementCols = []float64{24, 22, 70, 22, 22, 22}

func statementHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(245, 245, 245)
	pdf.SetTextColor(20, 20, 20)
	pdf.CellFormat(statementCols[0], 8, "DATE", "1", 0, "C", true, 0, "")
	pdf.CellFormat(statementCols[1], 8, "TYPE", "1", 0, "C", true, 0, "")
	pdf.CellFormat(statementCols[2], 8, "DESCRIPTION", "1", 0, "L", true, 0, "")
	pdf.CellFormat(statementCols[3], 8, "DEBIT", "1", 0, "R", true, 0, "")
	pdf.CellFormat(statementCols[4], 8, "CREDIT", "1", 0, "R", true, 0, "")
	pdf.CellFormat(statementCols[5], 8, "BALANCE", "1", 1, "R", true, 0, "")
	pdf.SetFont("Helvetica", "", 9)
}

// RenderStatementPDF lays out a party statement: summary boxes, then every
// row with its running balance.
func RenderStatementPDF(st Statement, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetTitle("Khata statement - "+st.Party.Name, false)
	pdf.AddPage()

	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Khata Statement")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(80, 80, 80)
	pdf.Cell(0, 6, strings.ToUpper(string(st.Party.Kind))+": "+st.Party.Name)
	pdf.Ln(5)
	if st.Party.Phone != "" {
		pdf.Cell(0, 6, "Phone: "+st.Party.Phone)
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, "Period: "+period(st.From, st.To))
	pdf.Ln(10)

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetFillColor(248, 248, 248)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetFont("Helvetica", "B", 10)
	sumW := []float64{45.5, 45.5, 45.5, 45.5}
	pdf.CellFormat(sumW[0], 9, "Opening (Rs.)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[1], 9, "Purchases (Rs.)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[2], 9, "Payments (Rs.)", "1", 0, "C", true, 0, "")
	pdf.CellFormat(sumW[3], 9, "Closing (Rs.)", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(sumW[0], 9, formatMoney(st.Opening), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[1], 9, formatMoney(st.Purchases), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[2], 9, formatMoney(st.Payments), "1", 0, "C", false, 0, "")
	pdf.CellFormat(sumW[3], 9, formatMoney(st.Closing), "1", 1, "C", false, 0, "")
	pdf.Ln(6)

	statementHeader(pdf)
	pdf.SetTextColor(30, 30, 30)
	for i, r := range st.Rows {
		if i >= maxPDFRows {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.CellFormat(0, 8, "... truncated, export fewer days for the full list", "1", 1, "C", false, 0, "")
			break
		}
		if pdf.GetY() > 270 {
			pdf.AddPage()
			statementHeader(pdf)
		}

		pdf.CellFormat(statementCols[0], 8, r.Date.Format("2006-01-02"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(statementCols[1], 8, strings.ToUpper(string(r.Type)), "1", 0, "C", false, 0, "")

		x, y := pdf.GetX(), pdf.GetY()
		pdf.MultiCell(statementCols[2], 8, trimTo(r.Description, 80), "1", "L", false)
		usedH := pdf.GetY() - y
		pdf.SetXY(x+statementCols[2], y)

		pdf.CellFormat(statementCols[3], usedH, blankZero(r.Debit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(statementCols[4], usedH, blankZero(r.Credit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(statementCols[5], usedH, formatMoney(r.Balance), "1", 1, "R", false, 0, "")
	}

	pdf.SetY(-18)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(120, 120, 120)
	note := "Positive balance: " + owedBy(st.Party.Kind) + ". Generated " + generated.UTC().Format(time.RFC3339) + " | " + shortID(st.Party.ID)
	pdf.CellFormat(0, 10, note, "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func period(from, to *time.Time) string {
	f, t := "start", "today"
	if from != nil {
		f = from.Format("2006-01-02")
	}
	if to != nil {
		t = to.AddDate(0, 0, -1).Format("2006-01-02")
	}
	return f + " to " + t
}

func blankZero(n int64) string {
	if n == 0 {
		return ""
	}
	return formatMoney(n)
}
