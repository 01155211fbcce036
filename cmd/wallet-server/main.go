package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wallet-suite/internal/device"
	"wallet-suite/internal/device/bridge"
	"wallet-suite/internal/device/emulator"
	"wallet-suite/internal/effect"
	"wallet-suite/internal/handler"
	"wallet-suite/internal/model"
	"wallet-suite/internal/network"
	"wallet-suite/internal/repository"
	"wallet-suite/internal/server"
	"wallet-suite/internal/service/account"
	"wallet-suite/internal/service/compose"
	"wallet-suite/internal/service/mq"
	"wallet-suite/internal/service/transaction"
	"wallet-suite/internal/service/verify"
	"wallet-suite/internal/store"
	"wallet-suite/pkg/cache"
	"wallet-suite/pkg/config"
	"wallet-suite/pkg/database"
	"wallet-suite/pkg/logger"
	"wallet-suite/pkg/utils/lock"

	_ "wallet-suite/docs/swagger"
)

// @title Wallet Suite API
// @version 1.0
// @description Hardware wallet transaction lifecycle: address verification, composition, signing and broadcast

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// 0. 初始化 Config
	config.Init()

	// 1. 初始化 Logger
	logger.Init(config.Global.App.Env)
	defer logger.Sync()

	// 收到退出信号后 ctx 取消，设备、账户刷新消费者和后台任务随之停止
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. 连接 Redis (仅 redis 模式: 消息队列、分布式锁、已推送记录)
	var rdb *redis.Client
	if config.Global.Redis.MQType == "redis" {
		var err error
		rdb, err = database.ConnectRedis(config.Global.Redis.Addr, config.Global.Redis.Password, config.Global.Redis.DB)
		if err != nil {
			logger.Fatal("Redis 连接失败", zap.Error(err))
		}
		defer rdb.Close()
	}

	// 3. 初始化消息队列
	producer, consumer := newMQ(rdb)
	defer consumer.Close()

	// 4. 锁与已推送记录
	var locker lock.DistributedLock = lock.NewLocalLock()
	var consumed cache.Cache = cache.NewMemoryCache(24*time.Hour, 10*time.Minute)
	if rdb != nil {
		locker = lock.NewRedisLock(rdb)
		consumed = cache.NewMultiLevelCache(consumed, cache.NewRedisCache(rdb))
	}

	// 5. 状态与设备
	st := store.New()
	client, closeDevice := newDevice(ctx, st)
	defer closeDevice()

	// 6. 意图输出: 状态存储、日志、消息队列、HTTP 响应
	sink := effect.Fanout{
		st,
		effect.NewLogging(logger.Named("intent")),
		effect.NewPublisher(producer, effect.Topics{
			Notification: config.Global.Events.NotificationTopic,
			Modal:        config.Global.Events.ModalTopic,
			Action:       config.Global.Events.ActionTopic,
		}, logger.Named("publisher")),
		effect.Captured{},
	}

	// 7. 会话审计
	var recorder transaction.SessionRecorder = transaction.NopRecorder{}
	if config.Global.DB.Enabled {
		recorder = newSessionRepository()
	}

	// 8. 业务服务
	refresher := account.NewMQRefresher(producer)
	pipeline := transaction.NewPipeline(client, st, sink, locker, consumed, refresher)
	manager := transaction.NewManager(compose.NewDefaultDispatcher(), client, st, sink, pipeline, recorder)
	coordinator := verify.NewCoordinator(client, st, sink, locker)

	// 9. 账户刷新消费者
	updater := account.NewUpdater(st)
	if rpcURL := config.Global.Device.RpcUrl; rpcURL != "" {
		fetcher, err := account.DialEthFetcher(ctx, rpcURL)
		if err != nil {
			logger.Error("以太坊节点连接失败，跳过账户刷新", zap.Error(err))
		} else {
			defer fetcher.Close()
			updater.Register(network.Ethereum, fetcher)
		}
	}
	if err := updater.Start(ctx, consumer); err != nil {
		logger.Fatal("订阅账户刷新失败", zap.Error(err))
	}

	// 10. HTTP + gRPC
	r := server.NewHTTPRouter(server.Handlers{
		Address: handler.NewAddressHandler(coordinator, st),
		Tx:      handler.NewTxHandler(manager, st),
		State:   handler.NewStateHandler(st),
		Health:  handler.NewHealthHandler(st),
	})
	hs := server.NewHealthServer()

	app, err := server.New(server.Config{
		HttpPort: config.Global.App.HttpPort,
		GrpcPort: config.Global.App.GrpcPort,
	}, r, server.NewGRPCServer(hs), hs)
	if err != nil {
		logger.Fatal("应用启动失败", zap.Error(err))
	}
	app.Go("device-health", func(ctx context.Context) {
		server.WatchDevice(ctx, hs, st, 5*time.Second)
	})

	// 运行 (阻塞到收到退出信号)
	if err := app.Run(ctx); err != nil {
		logger.Error("服务异常退出", zap.Error(err))
	}
	logger.Info("系统已退出")
}

func newMQ(rdb *redis.Client) (mq.Producer, mq.Consumer) {
	switch config.Global.Redis.MQType {
	case "kafka":
		logger.Info("使用 Kafka 作为消息队列...")
		brokers := config.Global.Kafka.Brokers
		return mq.NewKafkaProducer(brokers), mq.NewKafkaConsumer(brokers, "wallet_suite_group")
	case "redis":
		logger.Info("使用 Redis Streams 作为消息队列...")
		host, _ := os.Hostname()
		return mq.NewRedisProducer(rdb), mq.NewRedisConsumer(rdb, "wallet_suite", "server-"+host)
	default:
		logger.Info("未配置消息队列，使用进程内队列")
		broker := mq.NewMemoryBroker()
		return broker, broker
	}
}

// newDevice 按配置创建设备客户端，返回关闭函数
func newDevice(ctx context.Context, st *store.Store) (device.Client, func()) {
	cfg := config.Global.Device
	switch cfg.Mode {
	case "bridge":
		c := bridge.New(cfg.BridgeURL, cfg.EventsURL)
		if err := c.Start(ctx); err != nil {
			logger.Fatal("连接设备 bridge 失败", zap.Error(err))
		}
		logger.Info("设备 bridge 已连接", zap.String("url", cfg.BridgeURL))
		// 设备状态由设备管理方通过 PUT /state/device 写入
		return c, func() { _ = c.Close() }
	default:
		emu, closeFn := newEmulator(ctx, cfg)
		info := emu.Info()
		st.SetDevice(&info)
		logger.Info("模拟设备已就绪", zap.String("label", info.Label), zap.String("path", info.Path))
		return emu, closeFn
	}
}

func newEmulator(ctx context.Context, cfg config.DeviceConfig) (*emulator.Emulator, func()) {
	closeFn := func() {}
	var opts []emulator.Option
	if cfg.RpcUrl != "" {
		eth, err := emulator.DialEthBroadcaster(ctx, cfg.RpcUrl)
		if err != nil {
			logger.Fatal("以太坊节点连接失败", zap.Error(err))
		}
		closeFn = eth.Close
		opts = append(opts, emulator.WithBroadcaster(
			emulator.NewRouter(emulator.NewOfflineBroadcaster()).Handle(network.Ethereum, eth)))
	}

	var (
		emu *emulator.Emulator
		err error
	)
	switch _, statErr := os.Stat(cfg.KeystorePath); {
	case statErr == nil:
		emu, err = emulator.Load(cfg.KeystorePath, cfg.Password, opts...)
	case errors.Is(statErr, os.ErrNotExist) && cfg.Mnemonic != "":
		logger.Warn("keystore 不存在，使用配置中的助记词 (仅限开发环境)")
		emu, err = emulator.New(cfg.Mnemonic, "", opts...)
	default:
		logger.Fatal("找不到模拟设备种子，请先运行 wallet-cli emulator init", zap.String("keystore", cfg.KeystorePath))
	}
	if err != nil {
		logger.Fatal("模拟设备初始化失败", zap.Error(err))
	}
	return emu, closeFn
}

func newSessionRepository() *repository.SessionRepository {
	db, err := database.ConnectPostgres(database.PostgresDSN(
		config.Global.DB.Host,
		config.Global.DB.Port,
		config.Global.DB.User,
		config.Global.DB.Password,
		config.Global.DB.Name,
	), config.Global.App.Env == "development")
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 开发环境自动迁移；生产环境使用 migrate 工具
	if config.Global.App.Env == "development" {
		if err := db.AutoMigrate(model.AllModels()...); err != nil {
			logger.Fatal("数据库自动迁移失败", zap.Error(err))
		}
	}
	return repository.NewSessionRepository(db)
}
