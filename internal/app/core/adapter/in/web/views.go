package web

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/template/html/v2"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
)

//go:embed templates
var templateFS embed.FS

func newViews() (*html.Engine, error) {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("rupiah", domain.FormatRupiah)
	engine.AddFunc("ribuan", domain.FormatThousands)
	engine.AddFunc("datetime", func(t time.Time) string { return t.Format("02/01/2006 15:04") })
	engine.AddFunc("date", func(t time.Time) string { return t.Format(time.DateOnly) })
	engine.AddFunc("inc", func(i int) int { return i + 1 })
	if err := engine.Load(); err != nil {
		return nil, err
	}
	return engine, nil
}
