package web

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

func (s *Server) adminDashboard(c *fiber.Ctx) error {
	dash, err := s.svc.Reports.AdminDashboard(c.UserContext())
	if err != nil {
		s.logFailure(c, err)
		dash = &usecase.AdminDashboard{}
		setFlashNow(c, flashError, messageOf(err))
	}
	return render(c, "dashboard_admin", "Dashboard Admin", fiber.Map{"Dash": dash})
}

// kasirDashboard 區間內的交易 (預設今天)，新到舊
func (s *Server) kasirDashboard(c *fiber.Ctx) error {
	r := usecase.ResolveRange(s.svc.Reports.Now(), c.Query("range"), c.Query("start"), c.Query("end"))
	rep, err := s.svc.Reports.Report(c.UserContext(), r)
	if err != nil {
		s.logFailure(c, err)
		rep = &usecase.Report{Range: r}
		setFlashNow(c, flashError, messageOf(err))
	}
	rows := slices.Clone(rep.Rows)
	slices.Reverse(rows)
	return render(c, "dashboard_kasir", "Dashboard Kasir", fiber.Map{
		"Range":  rep.Range,
		"Rows":   rows,
		"Totals": rep.Totals,
	})
}

// dailySeries 圖表資料
func (s *Server) dailySeries(c *fiber.Ctx) error {
	series, err := s.svc.Reports.Daily(c.UserContext(), c.Query("range"), c.Query("start"), c.Query("end"), c.Query("days"))
	if err != nil {
		return s.failJSON(c, err)
	}
	return c.JSON(series)
}

// setFlashNow 在目前頁面直接顯示訊息
func setFlashNow(c *fiber.Ctx, kind, message string) {
	c.Locals(flashLocal, &Flash{Type: kind, Message: message})
}
