// healthcheck 以 gRPC health 協定檢查服務，SERVING 時結束碼為 0 (供容器 HEALTHCHECK 使用)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	grpcin "github.com/JoeShih716/tabungan-santri/internal/app/core/adapter/in/grpc"
	grpcpool "github.com/JoeShih716/tabungan-santri/pkg/grpc"
)

func main() {
	addr := flag.String("addr", "localhost:50051", "health server address")
	service := flag.String("service", grpcin.ServiceName, "service name (empty for overall status)")
	timeout := flag.Duration("timeout", 3*time.Second, "request timeout")
	flag.Parse()

	os.Exit(check(*addr, *service, *timeout))
}

func check(addr, service string, timeout time.Duration) int {
	pool := grpcpool.NewPool(grpcpool.WithKeepalive(0))
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	st, err := pool.CheckHealth(ctx, addr, service)
	if err != nil {
		fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		return 2
	}
	fmt.Println(st.String())
	if st != healthpb.HealthCheckResponse_SERVING {
		return 1
	}
	return 0
}
