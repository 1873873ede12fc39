package web

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/receipt"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/sheet"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

func (s *Server) loadReport(c *fiber.Ctx) (*usecase.Report, error) {
	r := usecase.ResolveRange(s.svc.Reports.Now(), c.Query("range"), c.Query("start"), c.Query("end"))
	return s.svc.Reports.Report(c.UserContext(), r)
}

// showReport 區間報表 (畫面新到舊)
func (s *Server) showReport(c *fiber.Ctx) error {
	rep, err := s.loadReport(c)
	if err != nil {
		return s.fail(c, err, "/dashboard/admin")
	}
	rows := slices.Clone(rep.Rows)
	slices.Reverse(rows)
	return render(c, "reports/index", "Laporan", fiber.Map{
		"Range":  rep.Range,
		"Rows":   rows,
		"Totals": rep.Totals,
		"Query":  string(c.Request().URI().QueryString()),
	})
}

// export 產生報表檔並以附件下載
func (s *Server) export(c *fiber.Ctx, ext, contentType string, write func(io.Writer, *usecase.Report) error) error {
	rep, err := s.loadReport(c)
	if err != nil {
		return s.fail(c, err, "/laporan")
	}
	var buf bytes.Buffer
	if err := write(&buf, rep); err != nil {
		return s.fail(c, err, "/laporan")
	}
	name := fmt.Sprintf("laporan_%s_%s.%s", rep.Range.StartString(), rep.Range.EndString(), ext)
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, name))
	return c.Send(buf.Bytes())
}

func (s *Server) exportCSV(c *fiber.Ctx) error {
	return s.export(c, "csv", "text/csv; charset=utf-8", sheet.WriteReportCSV)
}

func (s *Server) exportXLSX(c *fiber.Ctx) error {
	return s.export(c, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", sheet.WriteReportXLSX)
}

func (s *Server) exportPDF(c *fiber.Ctx) error {
	return s.export(c, "pdf", "application/pdf", receipt.WriteReport)
}
