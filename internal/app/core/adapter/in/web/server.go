package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	fiberlog "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/filestore"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/sheet"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/domain"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
)

// Config HTTP 伺服器設定
type Config struct {
	Addr          string
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookie  bool
	// CSRF 開啟表單 CSRF 檢查
	CSRF bool
	// AccessLog 輸出存取紀錄
	AccessLog bool
	// BodyLimit 上傳大小上限 (bytes)
	BodyLimit int
	// DBReady 資料庫可用；false 時畫面顯示預覽模式提示
	DBReady bool
}

// Services 處理器依賴的用例
type Services struct {
	Engine       *usecase.Engine
	Students     *usecase.StudentService
	Users        *usecase.UserService
	Presets      *usecase.PresetService
	Reports      *usecase.ReportService
	Feedback     *usecase.FeedbackService
	Transactions usecase.TransactionReader
	Files        *filestore.Dir
	Sheets       *sheet.Fetcher
}

// Server 後台網站 (fiber)
type Server struct {
	app    *fiber.App
	cfg    Config
	svc    Services
	tokens *tokenIssuer
	logger *slog.Logger
}

// NewServer 建立 fiber app 並註冊所有路由
//
// 參數:
//
//	cfg: 伺服器設定
//	svc: 用例
//	logger: 日誌
//
// 回傳:
//
//	*Server: 尚未開始監聽的伺服器
//	error: 樣板載入失敗
func NewServer(cfg Config, svc Services, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = 10 << 20
	}
	views, err := newViews()
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		tokens: newTokenIssuer(cfg.SessionSecret, cfg.SessionTTL),
		logger: logger,
	}
	s.app = fiber.New(fiber.Config{
		AppName:               "Tabungan Santri",
		Views:                 views,
		ViewsLayout:           "layouts/main",
		PassLocalsToViews:     true,
		ErrorHandler:          s.errorHandler,
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDLocal,
	}))
	s.app.Use(helmet.New())
	if cfg.AccessLog {
		s.app.Use(fiberlog.New(fiberlog.Config{
			Format: "${time} ${locals:" + requestIDLocal + "} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	if cfg.CSRF {
		s.app.Use(csrf.New(csrf.Config{
			KeyLookup:      "form:" + csrfField,
			CookieName:     "csrf_",
			CookieSameSite: "Lax",
			CookieSecure:   cfg.SecureCookie,
			CookieHTTPOnly: true,
			Expiration:     cfg.SessionTTL,
			ContextKey:     csrfLocal,
		}))
	}
	s.app.Use(s.loadSession)
	s.routes()
	return s, nil
}

// App 取得 fiber app (測試用)
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen 阻塞直到伺服器關閉
func (s *Server) Listen() error {
	s.logger.Info("http server listening", slog.String("addr", s.cfg.Addr))
	return s.app.Listen(s.cfg.Addr)
}

// Shutdown 等待進行中的請求完成
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	app := s.app
	login := s.requireLogin
	admin := s.requireRole(domain.RoleAdmin)
	kasir := s.requireRole(domain.RoleKasir)

	app.Get("/", s.home)
	app.Get("/login", s.showLogin)
	app.Post("/login", s.login)
	app.Get("/logout", s.logout)
	app.Post("/logout", s.logout)

	fb := app.Group("/feedback")
	fb.Post("/", s.submitFeedback)
	fb.Get("/", login, s.listFeedback)
	fb.Post("/:id/delete", login, admin, s.deleteFeedback)

	dash := app.Group("/dashboard", login)
	dash.Get("/admin", admin, s.adminDashboard)
	dash.Get("/kasir", kasir, s.kasirDashboard)
	dash.Get("/api/daily", s.dailySeries)

	santri := app.Group("/santri", login)
	santri.Get("/", admin, s.listStudents)
	santri.Get("/search", admin, s.searchStudentsAdmin)
	santri.Get("/new", admin, s.newStudent)
	santri.Post("/new", admin, s.createStudent)
	santri.Get("/import", admin, s.showImport)
	santri.Post("/import/preview", admin, s.previewSheetImport)
	santri.Post("/import/run", admin, s.runSheetImport)
	santri.Post("/import/excel/preview", admin, s.previewFileImport)
	santri.Post("/import/excel/run", admin, s.runFileImport)
	santri.Get("/:id/edit", admin, s.editStudent)
	santri.Post("/:id/edit", admin, s.updateStudent)
	santri.Post("/:id/delete", admin, s.deleteStudent)
	santri.Get("/:id/foto", s.studentPhoto)
	santri.Get("/:id", s.showStudent)

	trx := app.Group("/transaksi", login)
	trx.Get("/setor", kasir, s.depositForm)
	trx.Get("/tarik", kasir, s.withdrawalForm)
	trx.Post("/cari", kasir, s.findStudentForForm)
	trx.Post("/setor", kasir, s.deposit)
	trx.Post("/tarik", kasir, s.withdraw)
	trx.Get("/search", kasir, s.searchStudentsCashier)
	trx.Get("/api/presets", s.presetsJSON)
	trx.Get("/hapus", admin, s.reversalForm)
	trx.Post("/hapus", admin, s.reverse)
	trx.Get("/presets", admin, s.listPresets)
	trx.Post("/presets/new", admin, s.createPreset)
	trx.Post("/presets/:id/edit", admin, s.updatePreset)
	trx.Post("/presets/:id/delete", admin, s.deletePreset)
	trx.Get("/:trxNo/pdf", s.receiptPDF)

	users := app.Group("/users", login, admin)
	users.Get("/", s.listUsers)
	users.Get("/new", s.newUser)
	users.Post("/new", s.createUser)
	users.Get("/:id/edit", s.editUser)
	users.Post("/:id/edit", s.updateUser)
	users.Post("/:id/delete", s.deleteUser)

	account := app.Group("/account", login)
	account.Get("/", s.showAccount)
	account.Post("/", s.updateAccount)

	report := app.Group("/laporan", login, admin)
	report.Get("/", s.showReport)
	report.Get("/export/csv", s.exportCSV)
	report.Get("/export/xlsx", s.exportXLSX)
	report.Get("/export/pdf", s.exportPDF)
}
