package server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"wallet-suite/internal/store"
)

// DeviceHealthService gRPC 健康检查中表示设备可达性的服务名
const DeviceHealthService = "wallet.device"

// NewGRPCServer 初始化 gRPC 服务，注册标准健康检查
func NewGRPCServer(hs *health.Server) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	return s
}

// NewHealthServer 整体服务始终 SERVING；设备服务随设备连接状态变化
func NewHealthServer() *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(DeviceHealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	return hs
}

// WatchDevice 定期同步设备可达性到健康检查，ctx 取消后返回
func WatchDevice(ctx context.Context, hs *health.Server, state store.Provider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		syncDeviceStatus(hs, state)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func syncDeviceStatus(hs *health.Server, state store.Provider) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if state.Device().Reachable() {
		status = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus(DeviceHealthService, status)
}
