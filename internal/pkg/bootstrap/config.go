// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"storefront/internal/pkg/database"
)

// Config 是服务的完整配置：先读 YAML 文件，再用环境变量覆盖。
type Config struct {
	App   AppConfig   `yaml:"app"`
	Log   LogConfig   `yaml:"log"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	Name            string        `yaml:"name" envconfig:"APP_NAME"`
	Env             string        `yaml:"env" envconfig:"APP_ENV"`
	Port            int           `yaml:"port" envconfig:"APP_PORT"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" envconfig:"APP_SHUTDOWN_TIMEOUT"`
}

type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" envconfig:"LOG_PRETTY"`
}

type InfraConfig struct {
	MySQL  database.MySQLConfig `yaml:"mysql"`
	Redis  RedisConfig          `yaml:"redis"`
	Kafka  KafkaConfig          `yaml:"kafka"`
	Jaeger JaegerConfig         `yaml:"jaeger"`
	Nacos  NacosConfig          `yaml:"nacos"`
}

// RedisConfig 商品缓存。Enabled=false 时使用空缓存。
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" envconfig:"REDIS_ENABLED"`
	Addr     string        `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string        `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" envconfig:"REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" envconfig:"REDIS_TTL"`
}

// KafkaConfig 领域事件。Brokers 为空时事件不发送。
type KafkaConfig struct {
	Brokers          []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`
	InventoryTopic   string   `yaml:"inventoryTopic" envconfig:"KAFKA_INVENTORY_TOPIC"`
	OrderStatusTopic string   `yaml:"orderStatusTopic" envconfig:"KAFKA_ORDER_STATUS_TOPIC"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint" envconfig:"JAEGER_ENDPOINT"`
}

// NacosConfig 服务注册，默认关闭。
type NacosConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"NACOS_ENABLED"`
	ServerAddrs string `yaml:"serverAddrs" envconfig:"NACOS_SERVER_ADDRS"`
	Namespace   string `yaml:"namespace" envconfig:"NACOS_NAMESPACE"`
	Group       string `yaml:"group" envconfig:"NACOS_GROUP"`
}

// DefaultConfig 没有配置文件时使用的默认值，适合本地开发。
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{Name: "storefront", Env: "dev", Port: 8080, ShutdownTimeout: 10 * time.Second},
		Log: LogConfig{Level: "info"},
		Infra: InfraConfig{
			MySQL: database.MySQLConfig{
				Host: "localhost", Port: 3306, User: "root", Database: "storefront",
				MaxOpenConns: 20, MaxIdleConns: 10, ConnMaxLifetime: time.Hour,
			},
			Redis: RedisConfig{Addr: "localhost:6379", TTL: 5 * time.Minute},
			Kafka: KafkaConfig{
				InventoryTopic:   "storefront.inventory-adjusted",
				OrderStatusTopic: "storefront.order-status-changed",
			},
			Jaeger: JaegerConfig{Endpoint: "http://localhost:14268/api/traces"},
			Nacos:  NacosConfig{ServerAddrs: "localhost:8848", Group: "DEFAULT_GROUP"},
		},
	}
}

var current atomic.Pointer[Config]

// LoadConfig 从 path 读取 YAML（文件不存在时只用默认值），再应用环境变量覆盖，
// 结果同时保存为当前配置。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config file %s", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, errors.Wrap(err, "apply environment overrides")
	}
	current.Store(cfg)
	return cfg, nil
}

// GetCurrentConfig 返回最近一次加载的配置，未加载时返回默认配置。
func GetCurrentConfig() *Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	return DefaultConfig()
}

// ConfigPath 返回配置文件路径，CONFIG_PATH 未设置时为 configs/config.yaml。
func ConfigPath() string {
	return getEnv("CONFIG_PATH", "configs/config.yaml")
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
