package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"wallet-suite/internal/handler"
	"wallet-suite/internal/handler/response"
	"wallet-suite/internal/server/routes"
	"wallet-suite/pkg/monitor"
	"wallet-suite/pkg/validator"
)

// Handlers 路由依赖的全部 handler
type Handlers struct {
	Address *handler.AddressHandler
	Tx      *handler.TxHandler
	State   *handler.StateHandler
	Health  *handler.HealthHandler
}

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(h Handlers) *gin.Engine {
	// 0. 初始化监控指标
	monitor.Init()
	validator.Init()

	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware())

	// 3. 注册基础路由
	r.GET("/health", h.Health.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 4. 注册 API 路由组
	api := r.Group("/api/v1")
	{
		api.GET("/ping", func(c *gin.Context) {
			response.Success(c, gin.H{"pong": true})
		})

		routes.RegisterAddressRoutes(api, h.Address)
		routes.RegisterTxRoutes(api, h.Tx)
		routes.RegisterStateRoutes(api, h.State)
	}

	return r
}
