package sheet

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

func TestReadCSV(t *testing.T) {
	in := "\xEF\xBB\xBFNIS;Nama;Kelas\n1001;Siti;7A\n;;\n1002;\"Ali; Jr\"\n"
	rows, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %q", rows)
	}
	if rows[0][0] != "NIS" || rows[2][1] != "Ali; Jr" || len(rows[2]) != 2 {
		t.Fatalf("rows = %q", rows)
	}
	if _, err := ReadCSV(strings.NewReader("\n\n")); !errors.Is(err, ErrEmptySheet) {
		t.Fatalf("empty err = %v", err)
	}
}

func TestReadXLSXFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "NIS")
	f.SetCellValue("Sheet1", "B1", "Nama")
	f.SetCellValue("Sheet1", "A3", "1001")
	f.SetCellValue("Sheet1", "B3", "Siti")
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows, name, err := ReadXLSX(&buf)
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if name != "Sheet1" || len(rows) != 2 || rows[1][1] != "Siti" {
		t.Fatalf("ReadXLSX = %q %q", name, rows)
	}
}

func TestCSVExportURL(t *testing.T) {
	got, err := CSVExportURL("https://docs.google.com/spreadsheets/d/1AbC_d-9/edit#gid=0", "Data Santri")
	if err != nil {
		t.Fatalf("CSVExportURL: %v", err)
	}
	want := "https://docs.google.com/spreadsheets/d/1AbC_d-9/export?format=csv&sheet=Data+Santri"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if _, err := CSVExportURL("https://example.com/x", ""); !errors.Is(err, ErrInvalidSheetURL) {
		t.Fatalf("err = %v", err)
	}
}

type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = "http"
	r.URL.Host = strings.TrimPrefix(rt.target, "http://")
	return http.DefaultTransport.RoundTrip(r)
}

func TestFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "csv" {
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		w.Write([]byte("nis,nama\n1,Ali\n"))
	}))
	defer srv.Close()

	f := NewFetcher(&http.Client{Transport: rewriteTransport{target: srv.URL}, Timeout: time.Second})
	rows, err := f.Fetch(context.Background(), "https://docs.google.com/spreadsheets/d/abc/edit", "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "Ali" {
		t.Fatalf("rows = %q", rows)
	}
}

func sampleReport() *usecase.Report {
	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	return &usecase.Report{
		Rows: []domain.TransactionView{{
			Transaction: domain.Transaction{TrxNo: "TRX-1", Type: domain.TransactionTypeWithdrawal, Amount: 20000, Note: "jajan,\nkantin", CreatedAt: at},
			StudentNIS:  "1001",
			StudentName: "Siti",
		}},
		Totals: usecase.Totals{WithdrawalCount: 1, WithdrawalTotal: 20000},
	}
}

func TestWriteReportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReportCSV(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteReportCSV: %v", err)
	}
	rows, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "2024-03-05 10:00:00" || rows[1][4] != "withdrawal" || rows[1][7] != "jajan, kantin" {
		t.Fatalf("rows = %q", rows)
	}
}

func TestWriteReportXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReportXLSX(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteReportXLSX: %v", err)
	}
	rows, name, err := ReadXLSX(&buf)
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if name != "Laporan" || rows[0][0] != "Tanggal" || rows[1][1] != "TRX-1" {
		t.Fatalf("ReadXLSX = %q %q", name, rows)
	}
}
