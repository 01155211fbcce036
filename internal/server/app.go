package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"

	"wallet-suite/pkg/logger"
)

const shutdownTimeout = 5 * time.Second

type Config struct {
	HttpPort string
	GrpcPort string
}

// App HTTP + gRPC 服务以及跟随服务生命周期的后台任务 (设备健康同步等)
type App struct {
	httpServer   *http.Server
	httpListener net.Listener
	grpcServer   *grpc.Server
	grpcListener net.Listener
	health       *health.Server

	tasks []task
	wg    sync.WaitGroup
	log   *zap.Logger
}

type task struct {
	name string
	run  func(ctx context.Context)
}

func New(cfg Config, httpHandler http.Handler, grpcServer *grpc.Server, hs *health.Server) (*App, error) {
	httpLis, err := net.Listen("tcp", ":"+cfg.HttpPort)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on http port %s: %w", cfg.HttpPort, err)
	}
	grpcLis, err := net.Listen("tcp", ":"+cfg.GrpcPort)
	if err != nil {
		_ = httpLis.Close()
		return nil, fmt.Errorf("failed to listen on grpc port %s: %w", cfg.GrpcPort, err)
	}

	return &App{
		httpServer:   &http.Server{Handler: httpHandler},
		httpListener: httpLis,
		grpcServer:   grpcServer,
		grpcListener: grpcLis,
		health:       hs,
		log:          logger.Named("app"),
	}, nil
}

// Go 注册后台任务，Run 时启动；ctx 取消即应返回
func (a *App) Go(name string, run func(ctx context.Context)) {
	a.tasks = append(a.tasks, task{name: name, run: run})
}

// HTTPAddr 实际监听地址 (端口配置为 0 时由系统分配)
func (a *App) HTTPAddr() string { return a.httpListener.Addr().String() }

// GRPCAddr 实际监听地址
func (a *App) GRPCAddr() string { return a.grpcListener.Addr().String() }

// Run 启动服务并阻塞到 ctx 取消或任一服务异常退出。
// 关闭顺序: 健康检查置为 NOT_SERVING -> 停止后台任务 -> HTTP -> gRPC
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, t := range a.tasks {
		a.wg.Add(1)
		go func(t task) {
			defer a.wg.Done()
			t.run(ctx)
			a.log.Debug("background task stopped", zap.String("task", t.name))
		}(t)
	}

	errCh := make(chan error, 2)
	go func() {
		a.log.Info("Starting HTTP Server", zap.String("addr", a.HTTPAddr()))
		if err := a.httpServer.Serve(a.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		a.log.Info("Starting gRPC Server", zap.String("addr", a.GRPCAddr()))
		if err := a.grpcServer.Serve(a.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("Shutting down server...")
	case runErr = <-errCh:
		a.log.Error("server failure, shutting down", zap.Error(runErr))
	}

	if a.health != nil {
		a.health.Shutdown()
	}
	cancel()
	a.wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	a.grpcServer.GracefulStop()

	a.log.Info("Server exited properly")
	return runErr
}
