package grpc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// ErrPoolClosed 連線池已關閉
var ErrPoolClosed = errors.New("grpc pool closed")

// Pool 依目標地址共用 gRPC 客戶端連線 (執行緒安全)
// 每個目標只保留一條連線，已 Shutdown 的連線會在下次取用時重建
type Pool struct {
	mu     sync.Mutex
	conns  map[string]*grpc.ClientConn
	closed bool

	interceptor   grpc.UnaryClientInterceptor
	keepaliveTime time.Duration
	extra         []grpc.DialOption
}

// PoolOption 定義了 Pool 的配置選項函數
type PoolOption func(*Pool)

// WithInterceptor 設定全局 UnaryClientInterceptor (logging、metrics)
func WithInterceptor(interceptor grpc.UnaryClientInterceptor) PoolOption {
	return func(p *Pool) {
		p.interceptor = interceptor
	}
}

// WithKeepalive 設定閒置時的 ping 間隔；0 表示不送 keepalive
func WithKeepalive(d time.Duration) PoolOption {
	return func(p *Pool) {
		p.keepaliveTime = d
	}
}

// WithDialOptions 附加到每條新連線的選項
func WithDialOptions(opts ...grpc.DialOption) PoolOption {
	return func(p *Pool) {
		p.extra = append(p.extra, opts...)
	}
}

// NewPool 建立連線池，預設不加密並每 10 秒送一次 keepalive
func NewPool(opts ...PoolOption) *Pool {
	p := &Pool{
		conns:         make(map[string]*grpc.ClientConn),
		keepaliveTime: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GetConnection 取得或建立通往 target 的連線
//
// 參數:
//
//	target: string - 目標地址 (e.g., "localhost:50051")
//	opts: ...grpc.DialOption - 只在新建連線時套用的額外選項
//
// 回傳值:
//
//	*grpc.ClientConn: 連線 (lazy，第一次呼叫時才真正連線)
//	error: 連線池已關閉或建立失敗
func (p *Pool) GetConnection(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if conn, ok := p.conns[target]; ok {
		if conn.GetState() != connectivity.Shutdown {
			return conn, nil
		}
		delete(p.conns, target)
	}

	dialOpts := []grpc.DialOption{
		// 健康檢查走叢集內部網路，不需 TLS
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if p.keepaliveTime > 0 {
		dialOpts = append(dialOpts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                p.keepaliveTime,
			Timeout:             time.Second,
			PermitWithoutStream: true,
		}))
	}
	if p.interceptor != nil {
		dialOpts = append(dialOpts, grpc.WithUnaryInterceptor(p.interceptor))
	}
	dialOpts = append(dialOpts, p.extra...)
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for target %s: %w", target, err)
	}
	p.conns[target] = conn
	return conn, nil
}

// CheckHealth 以 grpc.health.v1 查詢 target 上 service 的狀態
//
// 回傳值:
//
//	healthpb.HealthCheckResponse_ServingStatus: 服務狀態
//	error: 連線或呼叫失敗 (服務未註冊時為 codes.NotFound)
func (p *Pool) CheckHealth(ctx context.Context, target, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := p.GetConnection(target)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

// Close 關閉所有連線，之後 GetConnection 回傳 ErrPoolClosed
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for target, conn := range p.conns {
		if err := conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", target, err))
		}
		delete(p.conns, target)
	}
	p.closed = true
	return errors.Join(errs...)
}
