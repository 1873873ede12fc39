package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

var reportHeaders = []string{"Tanggal", "Nomor", "NIS", "Nama", "Tipe", "Jumlah", "Kasir", "Keterangan"}

const reportTimeLayout = "2006-01-02 15:04:05"

// WriteReportCSV 輸出報表 CSV
func WriteReportCSV(w io.Writer, rep *usecase.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeaders); err != nil {
		return err
	}
	for i := range rep.Rows {
		r := &rep.Rows[i]
		record := []string{
			r.CreatedAt.Format(reportTimeLayout),
			r.TrxNo,
			r.StudentNIS,
			r.StudentName,
			string(r.Type),
			fmt.Sprint(r.Amount),
			r.CashierName,
			strings.ReplaceAll(r.Note, "\n", " "),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteReportXLSX 輸出報表 Excel：明細表加上合計
func WriteReportXLSX(w io.Writer, rep *usecase.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Laporan"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for i, header := range reportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(reportHeaders), 1)
		f.SetCellStyle(sheetName, "A1", last, style)
	}

	for i := range rep.Rows {
		r := &rep.Rows[i]
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.CreatedAt.Format(reportTimeLayout))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), r.TrxNo)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.StudentNIS)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), r.StudentName)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.Type.Label())
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), r.CashierName)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), r.Note)
	}

	sum := len(rep.Rows) + 3
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", sum), "Total Setoran")
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", sum), rep.Totals.DepositTotal)
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", sum+1), "Total Penarikan")
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", sum+1), rep.Totals.WithdrawalTotal)
	f.SetCellValue(sheetName, fmt.Sprintf("E%d", sum+2), "Selisih")
	f.SetCellValue(sheetName, fmt.Sprintf("F%d", sum+2), rep.Totals.Net())
	f.SetColWidth(sheetName, "B", "B", 30)
	f.SetColWidth(sheetName, "D", "D", 28)

	return f.Write(w)
}
