package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JoeShih716/tabungan-santri/config"
	grpcin "github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/in/grpc"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/in/web"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/audit"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/cache"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/filestore"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/memory"
	mysqlstore "github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/mysql"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/mysql/migrations"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/receipt"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/out/sheet"
	"github.com/JoeShih716/tabungan-santri/internal/app/core/usecase"
	"github.com/JoeShih716/tabungan-santri/pkg/mysql"
	"github.com/JoeShih716/tabungan-santri/pkg/wal"
)

// backend 儲存層 (mysql 或 memory) 需實作的全部介面
type backend interface {
	usecase.LedgerStore
	usecase.TransactionReader
	usecase.StudentStore
	usecase.UserStore
	usecase.PresetStore
	usecase.StatsStore
	usecase.AuditSink
	usecase.FeedbackStore
	Ping(ctx context.Context) error
}

var (
	_ backend = (*memory.Store)(nil)
	_ backend = (*mysqlstore.Store)(nil)
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// 1. 儲存層
	startCtx, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStart()

	hasher := usecase.PasswordHasher{Cost: cfg.Auth.BcryptCost}
	store, closeStore, err := openBackend(startCtx, cfg, hasher, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// 2. 檔案與收據
	files, err := filestore.NewDir(cfg.Storage.Root)
	if err != nil {
		return err
	}
	renderer := receipt.NewRenderer(files, receipt.Options{
		LogoPath:  cfg.Receipt.LogoPath,
		StampPath: cfg.Receipt.StampPath,
		Language:  cfg.Receipt.Language,
	}, logger.With(slog.String("component", "receipt")))

	// 3. 稽核：資料庫 → 本機暫存 → NATS
	spool, err := wal.NewWAL(cfg.Audit.SpoolPath)
	if err != nil {
		return err
	}
	defer spool.Close()

	auditOpts := []audit.Option{
		audit.WithSpool(spool),
		audit.WithLogger(logger.With(slog.String("component", "audit"))),
	}
	if cfg.NATS.URL != "" {
		nc, err := audit.ConnectNATS(cfg.NATS.URL, "tabungan-santri", logger)
		if err != nil {
			// 訊息佇列只是額外的發佈管道
			logger.Warn("nats unavailable, audit events not published", slog.String("url", cfg.NATS.URL), slog.Any("error", err))
		} else {
			defer nc.Drain()
			auditOpts = append(auditOpts, audit.WithPublisher(nc, cfg.NATS.Subject))
		}
	}
	recorder := audit.NewRecorder(store, auditOpts...)
	if _, err := recorder.ReplaySpool(startCtx); err != nil {
		logger.Warn("audit spool not fully replayed", slog.Any("error", err))
	}

	// 4. 快捷金額快取
	var presets usecase.PresetStore = store
	if rdb := cache.Connect(startCtx, cfg.Redis.Addr, logger); rdb != nil {
		defer rdb.Close()
		presets = cache.NewPresetCache(store, rdb, cfg.Redis.PresetTTL, logger)
	}

	// 5. 用例
	engine := usecase.NewEngine(store, presets, renderer, files, recorder,
		usecase.WithStorageTimeout(cfg.Storage.Timeout),
		usecase.WithReceiptTimeout(cfg.Receipt.Timeout),
		usecase.WithAsyncReceipts(cfg.Receipt.Async),
		usecase.WithLogger(logger.With(slog.String("component", "ledger"))),
	)
	svc := web.Services{
		Engine:       engine,
		Students:     usecase.NewStudentService(store, store, files, recorder, logger),
		Users:        usecase.NewUserService(store, hasher, recorder, logger),
		Presets:      usecase.NewPresetService(presets, recorder, logger),
		Reports:      usecase.NewReportService(store, store),
		Feedback:     usecase.NewFeedbackService(store, recorder, logger),
		Transactions: store,
		Files:        files,
		Sheets:       sheet.NewFetcher(nil),
	}

	// 6. 對外服務
	httpServer, err := web.NewServer(web.Config{
		Addr:          cfg.HTTP.Addr,
		SessionSecret: cfg.HTTP.SessionSecret,
		SessionTTL:    cfg.HTTP.SessionTTL,
		SecureCookie:  cfg.HTTP.SecureCookie,
		CSRF:          cfg.HTTP.CSRF,
		AccessLog:     cfg.HTTP.AccessLog,
		BodyLimit:     cfg.HTTP.BodyLimitMB << 20,
		DBReady:       cfg.Storage.Driver == config.DriverMySQL,
	}, svc, logger.With(slog.String("component", "http")))
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- httpServer.Listen()
	}()

	var health *grpcin.HealthServer
	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			return err
		}
		health = grpcin.NewHealthServer(store,
			grpcin.WithInterval(cfg.GRPC.CheckInterval),
			grpcin.WithLogger(logger.With(slog.String("component", "grpc"))),
		)
		go func() {
			errCh <- health.Serve(lis)
		}()
	}

	// 7. 等待中斷訊號 (Graceful Shutdown)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-quit:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	case serveErr = <-errCh:
		logger.Error("server exited", slog.Any("error", serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", slog.Any("error", err))
	}
	if health != nil {
		health.GracefulStop()
	}
	// 等待背景收據產生完成，才關閉資料庫
	if err := engine.Close(shutdownCtx); err != nil {
		logger.Warn("pending receipts not finished", slog.Any("error", err))
	}
	logger.Info("server exited properly")
	return serveErr
}

// openBackend 依 storage.driver 建立儲存層
//
// 回傳值:
//
//	backend: 儲存層
//	func(): 關閉函式
//	error: 連線或遷移失敗
func openBackend(ctx context.Context, cfg *config.Config, hasher usecase.PasswordHasher, logger *slog.Logger) (backend, func(), error) {
	if cfg.Storage.Driver == config.DriverMemory {
		store := memory.NewStore()
		if err := usecase.SeedDefaults(ctx, store, store, hasher); err != nil {
			return nil, nil, err
		}
		logger.Warn("using in-memory storage, data is lost on restart")
		return store, func() {}, nil
	}

	client, err := mysql.NewClient(ctx, cfg.MySQL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Auth.BcryptCost != 0 {
		migrations.PasswordCost = cfg.Auth.BcryptCost
	}
	if err := migrations.Up(ctx, client.SQLDB()); err != nil {
		client.Close()
		return nil, nil, err
	}
	logger.Info("mysql connected",
		slog.String("host", cfg.MySQL.Host),
		slog.String("db", cfg.MySQL.DBName))
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("close mysql", slog.Any("error", err))
		}
	}
	return mysqlstore.NewStore(client), closeFn, nil
}
