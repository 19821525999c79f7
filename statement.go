package transferful

import (
	"io"

	"github.com/go-pdf/fpdf"
)

// writeStatement renders the account header and its journal to PDF,
// oldest entry first.
func writeStatement(w io.Writer, acct *Account, charges []Charge) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Account statement", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Account: "+acct.ID.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Currency: "+acct.Currency, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Balance: "+acct.Balance.String(), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Issued: "+acct.UpdatedOn.Format("2006-01-02 15:04:05 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 7, "Date", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 7, "Type", "1", 0, "L", false, 0, "")
	pdf.CellFormat(35, 7, "Amount", "1", 0, "R", false, 0, "")
	pdf.CellFormat(45, 7, "Counterparty", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, ch := range charges {
		counter := ""
		if ch.CounterAcct != 0 {
			counter = ch.CounterAcct.String()
		}
		pdf.CellFormat(45, 7, ch.CreatedOn.Format("2006-01-02 15:04:05"), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, string(ch.Typ), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, ch.Amount.String()+" "+ch.Currency, "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 7, counter, "1", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}
