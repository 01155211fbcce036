package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	Device DeviceConfig `mapstructure:"device"`
	Events EventsConfig `mapstructure:"events"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
	GrpcPort string `mapstructure:"grpc_port"`
}

type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"` // 关闭时不记录 session 审计
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	MQType   string `mapstructure:"mq_type"` // "redis", "kafka" or "none"
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

// DeviceConfig 硬件设备接入方式
type DeviceConfig struct {
	Mode         string `mapstructure:"mode"`          // "emulator" or "bridge"
	BridgeURL    string `mapstructure:"bridge_url"`    // bridge 模式: HTTP 调用地址
	EventsURL    string `mapstructure:"events_url"`    // bridge 模式: websocket 事件地址
	KeystorePath string `mapstructure:"keystore_path"` // emulator 模式: 加密种子文件
	Password     string `mapstructure:"password"`      // 通常通过环境变量 DEVICE_PASSWORD 传入
	Mnemonic     string `mapstructure:"mnemonic"`      // 仅开发环境使用，优先级低于 keystore
	RpcUrl       string `mapstructure:"rpc_url"`       // emulator 广播 ETH 交易的节点，空则只计算 txid
}

type EventsConfig struct {
	NotificationTopic string `mapstructure:"notification_topic"`
	ModalTopic        string `mapstructure:"modal_topic"`
	ActionTopic       string `mapstructure:"action_topic"`
}

var Global Config

func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// 环境变量设置
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	log.Printf("Configuration loaded successfully. Env: %s, Device: %s", Global.App.Env, Global.Device.Mode)
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.http_port", "8080")
	viper.SetDefault("app.grpc_port", "50051")

	viper.SetDefault("db.enabled", false)
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.user", "wallet_user")
	viper.SetDefault("db.password", "wallet_password")
	viper.SetDefault("db.name", "wallet_db")

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.mq_type", "none")

	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})

	viper.SetDefault("device.mode", "emulator")
	viper.SetDefault("device.bridge_url", "http://127.0.0.1:21325")
	viper.SetDefault("device.events_url", "ws://127.0.0.1:21325/events")
	viper.SetDefault("device.keystore_path", "device.json")

	viper.SetDefault("events.notification_topic", "wallet_events_notification")
	viper.SetDefault("events.modal_topic", "wallet_events_modal")
	viper.SetDefault("events.action_topic", "wallet_events_action")
}
