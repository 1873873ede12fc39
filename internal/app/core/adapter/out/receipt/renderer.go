package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/filestore"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

const (
	pageMargin = 50.0
	lineHeight = 16.0
	sigWidth   = 180.0
	sigHeight  = 80.0
	stampSize  = 80.0
)

var bulan = [...]string{"", "Januari", "Februari", "Maret", "April", "Mei", "Juni", "Juli", "Agustus", "September", "Oktober", "November", "Desember"}

// FormatTanggal 例如 "05 Maret 2024, 14:30"
func FormatTanggal(t time.Time) string {
	return fmt.Sprintf("%02d %s %d, %02d:%02d", t.Day(), bulan[t.Month()], t.Year(), t.Hour(), t.Minute())
}

// Options 收據外觀設定
type Options struct {
	// LogoPath 頁首標誌 (可空)
	LogoPath string
	// StampPath 印章圖 (可空，空時畫出印章框)
	StampPath string
	// Language 金額拼字語言 LangID / LangEN
	Language string
}

// Renderer 以 fpdf 產生提款收據，存放在 receipts/<trx_no>.pdf
type Renderer struct {
	files  *filestore.Dir
	opts   Options
	logger *slog.Logger
}

func NewRenderer(files *filestore.Dir, opts Options, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{files: files, opts: opts, logger: logger}
}

// RenderWithdrawal 產生提款收據
//
// 參數:
//
//	ctx: 上下文 (已取消則不產生)
//	req: 收據欄位
//
// 回傳:
//
//	string: 相對於儲存根目錄的路徑
//	error: 包裝 domain.ErrRender 的錯誤
func (r *Renderer) RenderWithdrawal(ctx context.Context, req usecase.ReceiptRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRender, err)
	}
	rel := filestore.Rel(filestore.ReceiptsDir, req.TrxNo+".pdf")
	full, err := r.files.Path(rel)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRender, err)
	}

	pdf := r.withdrawalDoc(req)
	if err := pdf.OutputFileAndClose(full); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("%w: write %s: %w", domain.ErrRender, rel, err)
	}
	return rel, nil
}

func (r *Renderer) withdrawalDoc(req usecase.ReceiptRequest) *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetTitle("Bukti Penarikan "+req.TrxNo, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()

	if r.imageUsable(r.opts.LogoPath) {
		pdf.ImageOptions(r.opts.LogoPath, pageMargin, 40, 60, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetY(60)
	pdf.CellFormat(0, 24, "BUKTI PENARIKAN TABUNGAN SANTRI", "", 1, "C", false, 0, "")
	pdf.Ln(lineHeight)

	class := req.StudentClass
	if class == "" {
		class = "-"
	}
	pdf.SetFont("Helvetica", "", 11)
	line := func(label, value string) {
		pdf.CellFormat(90, lineHeight, label, "", 0, "L", false, 0, "")
		pdf.MultiCell(0, lineHeight, tr(": "+value), "", "L", false)
	}
	line("Nomor Trx", req.TrxNo)
	line("Tanggal", FormatTanggal(req.CreatedAt))
	pdf.Ln(lineHeight / 2)
	line("Nama Santri", req.StudentName)
	line("NIS", req.StudentNIS)
	line("Kelas", class)
	line("Jumlah", fmt.Sprintf("%s (%s)", domain.FormatRupiah(req.Amount), Spell(r.opts.Language, req.Amount)))
	if req.Note != "" {
		line("Keterangan", req.Note)
	}
	pdf.Ln(lineHeight)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, lineHeight, "Pihak Terkait", "", 1, "L", false, 0, "")
	pdf.Ln(lineHeight / 2)

	top := pdf.GetY()
	right := pageW - pageMargin - sigWidth
	r.signatureBlock(pdf, tr, pageMargin, top, "Pemberi (Kasir): "+req.GiverName, "Tanda Tangan Pemberi (Kasir)", req.GiverSignaturePath)
	r.signatureBlock(pdf, tr, right, top, "Penerima: "+req.ReceiverName, "Tanda Tangan Penerima", req.ReceiverSignaturePath)

	stampX := (pageW - stampSize) / 2
	stampY := top + 120
	if r.imageUsable(r.opts.StampPath) {
		pdf.SetAlpha(0.6, "Normal")
		pdf.ImageOptions(r.opts.StampPath, stampX, stampY, stampSize, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		pdf.SetAlpha(1, "Normal")
	} else {
		pdf.Rect(stampX, stampY, stampSize, stampSize, "D")
		pdf.SetFont("Helvetica", "", 8)
		pdf.Text(stampX+5, stampY+stampSize/2, "Cap/Stempel")
	}

	pdf.SetY(stampY + stampSize + 2*lineHeight)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, lineHeight, "Catatan: Bukti ini sah sebagai acuan transaksi.", "", 1, "C", false, 0, "")
	pdf.CellFormat(0, lineHeight, "Tanda tangan dilakukan setelah dokumen dicetak.", "", 1, "C", false, 0, "")
	return pdf
}

// signatureBlock 有簽名圖則貼上，否則畫出簽名框
func (r *Renderer) signatureBlock(pdf *fpdf.Fpdf, tr func(string) string, x, y float64, title, placeholder, sigPath string) {
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(x, y+10, tr(title))
	sig := ""
	if sigPath != "" {
		if full, err := r.files.Path(sigPath); err == nil && r.imageUsable(full) {
			sig = full
		}
	}
	if sig != "" {
		pdf.ImageOptions(sig, x, y+20, sigWidth, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
		return
	}
	pdf.Rect(x, y+20, sigWidth, sigHeight, "D")
	pdf.SetFont("Helvetica", "", 8)
	pdf.Text(x+10, y+20+sigHeight+12, placeholder)
}

// imageUsable 圖檔不存在時改畫外框，不讓收據失敗
func (r *Renderer) imageUsable(path string) bool {
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		r.logger.Warn("receipt image unavailable", slog.String("path", path), slog.Any("error", err))
		return false
	}
	return true
}

var _ usecase.ReceiptRenderer = (*Renderer)(nil)
