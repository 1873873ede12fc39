package receipt

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

// 報表欄寬 (pt)，合計為 A4 橫式可用寬度
var reportColumns = []struct {
	title string
	width float64
	align string
}{
	{"Waktu", 70, "L"},
	{"No. Trx", 170, "L"},
	{"NIS", 70, "L"},
	{"Nama", 150, "L"},
	{"Tipe", 50, "L"},
	{"Jumlah", 90, "R"},
	{"Kasir", 110, "L"},
}

// WriteReport 將區間報表輸出為 PDF
func WriteReport(w io.Writer, rep *usecase.Report) error {
	pdf := fpdf.New("L", "pt", "A4", "")
	pdf.SetMargins(40, 40, 40)
	pdf.SetAutoPageBreak(true, 40)
	pdf.SetTitle("Laporan Transaksi", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 24, "LAPORAN TRANSAKSI TABUNGAN SANTRI", "", 1, "C", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 16, fmt.Sprintf("Periode: %s s.d. %s",
		rep.Range.Start.Format("02 Jan 2006"), rep.Range.End.Format("02 Jan 2006")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 16, fmt.Sprintf("Total Setoran: %s (%d transaksi)",
		domain.FormatRupiah(rep.Totals.DepositTotal), rep.Totals.DepositCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 16, fmt.Sprintf("Total Penarikan: %s (%d transaksi)",
		domain.FormatRupiah(rep.Totals.WithdrawalTotal), rep.Totals.WithdrawalCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 16, "Selisih: "+domain.FormatRupiah(rep.Totals.Net()), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, c := range reportColumns {
			pdf.CellFormat(c.width, 16, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	header()

	for i := range rep.Rows {
		row := &rep.Rows[i]
		cells := []string{
			row.CreatedAt.Format("02/01 15:04"),
			row.TrxNo,
			row.StudentNIS,
			row.StudentName,
			row.Type.Label(),
			domain.FormatThousands(row.Amount),
			row.CashierName,
		}
		for j, c := range reportColumns {
			pdf.CellFormat(c.width, 14, tr(cells[j]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(rep.Rows) == 0 {
		pdf.CellFormat(0, 16, "Tidak ada transaksi pada periode ini.", "", 1, "C", false, 0, "")
	}
	return pdf.Output(w)
}
