package grpc

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// ServiceName 健康檢查回報的服務名稱 (空字串代表整體狀態)
const ServiceName = "tabungan.Ledger"

// Pinger 回報依賴 (資料庫) 是否可用
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer 以標準 grpc.health.v1 協定回報帳務服務是否可服務
//
// 結構:
//
//	server: 底層 gRPC server (註冊 health 與 reflection)
//	health: 狀態表，由 watch 迴圈依資料庫 Ping 結果更新
//	db: 被檢查的依賴
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	serving bool
	stop    context.CancelFunc
	done    chan struct{}
}

// Option 設定 HealthServer
type Option func(*HealthServer)

// WithInterval 設定檢查間隔
func WithInterval(d time.Duration) Option {
	return func(s *HealthServer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithPingTimeout 設定單次 Ping 的逾時
func WithPingTimeout(d time.Duration) Option {
	return func(s *HealthServer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger 設定 logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *HealthServer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHealthServer 建立健康檢查服務，初始狀態為 NOT_SERVING 直到第一次檢查成功
//
// 參數:
//
//	db: Pinger - 資料庫連線 (memory store 也實作 Ping)
//	opts: ...Option - 可選設定
//
// 回傳值:
//
//	*HealthServer: 尚未開始監聽的服務
func NewHealthServer(db Pinger, opts ...Option) *HealthServer {
	s := &HealthServer{
		health:   health.NewServer(),
		db:       db,
		interval: 10 * time.Second,
		timeout:  2 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			Time:              30 * time.Second,
			Timeout:           5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			// pkg/grpc.Pool 的客戶端每 10 秒 ping 一次
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.ChainUnaryInterceptor(s.logUnary),
	)
	healthpb.RegisterHealthServer(s.server, s.health)
	reflection.Register(s.server)

	s.setServing(false)
	return s
}

// Serve 開始監聽並在背景定期檢查資料庫，阻塞直到 server 停止
func (s *HealthServer) Serve(lis net.Listener) error {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.stop = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.watch(ctx)
	}()

	s.logger.Info("grpc health server listening", slog.String("addr", lis.Addr().String()))
	return s.server.Serve(lis)
}

// Check 立即檢查一次資料庫並更新狀態
//
// 回傳值:
//
//	bool: 目前是否為 SERVING
func (s *HealthServer) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.Ping(ctx)
	if err != nil {
		s.mu.Lock()
		was := s.serving
		s.mu.Unlock()
		if was {
			s.logger.Warn("database unreachable, reporting NOT_SERVING", slog.Any("error", err))
		}
	}
	s.setServing(err == nil)
	return err == nil
}

// Ready 最近一次檢查的結果
func (s *HealthServer) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serving
}

// GracefulStop 將狀態改為 NOT_SERVING 並等待進行中的呼叫結束
func (s *HealthServer) GracefulStop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.mu.Unlock()
	if stop != nil {
		stop()
		<-done
	}
	s.health.Shutdown()
	s.server.GracefulStop()
}

// Health 回傳狀態表 (測試與同程序內的檢查使用)
func (s *HealthServer) Health() healthpb.HealthServer {
	return s.health
}

func (s *HealthServer) watch(ctx context.Context) {
	s.Check(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

func (s *HealthServer) setServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.mu.Lock()
	changed := s.serving != ok
	s.serving = ok
	s.mu.Unlock()

	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
	if changed && ok {
		s.logger.Info("database reachable, reporting SERVING")
	}
}

func (s *HealthServer) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Warn("grpc call failed",
			slog.String("method", info.FullMethod),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err))
	} else {
		s.logger.Debug("grpc call", slog.String("method", info.FullMethod), slog.Duration("elapsed", time.Since(start)))
	}
	return resp, err
}
