// cmd/storefront/main.go
package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"storefront/internal/pkg/bootstrap"
	"storefront/internal/pkg/database"
	"storefront/internal/pkg/logger"
	"storefront/internal/pkg/mq"
	"storefront/internal/service/storefront/application"
	"storefront/internal/service/storefront/domain/port"
	"storefront/internal/service/storefront/infrastructure/adapter"
	"storefront/internal/service/storefront/infrastructure/cache"
	"storefront/internal/service/storefront/infrastructure/persistence"
	"storefront/internal/service/storefront/interfaces"
	"storefront/internal/tracing"
)

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	// .env 只在本地开发时存在
	_ = godotenv.Load()

	cfg, err := bootstrap.LoadConfig(bootstrap.ConfigPath())
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger.Init(cfg.App.Name, cfg.Log.Level, cfg.Log.Pretty)
	otel.SetTextMapPropagator(tracing.NewPropagator())
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	ctx := context.Background()
	log := logger.Ctx(ctx)

	// 1. 数据库
	db, err := database.OpenMySQL(cfg.Infra.MySQL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mysql")
	}
	store := persistence.NewGormStore(db)
	if cfg.Infra.MySQL.AutoMigrate {
		if err := store.AutoMigrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("auto migrate failed")
		}
	}

	// 2. 商品缓存（可选）
	var (
		productCache port.Cache = cache.NopCache{}
		redisCache   *cache.RedisCache
	)
	if cfg.Infra.Redis.Enabled {
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Infra.Redis.Addr},
			Password: cfg.Infra.Redis.Password,
			DB:       cfg.Infra.Redis.DB,
		})
		redisCache = cache.NewRedisCache(client, cfg.Infra.Redis.TTL)
		if err := redisCache.Ping(ctx); err != nil {
			// 缓存不可用不影响正确性，降级为不缓存
			log.Warn().Err(err).Str("addr", cfg.Infra.Redis.Addr).Msg("⚠️ redis unavailable, product cache disabled")
			_ = redisCache.Close()
			redisCache = nil
		} else {
			productCache = redisCache
		}
	}

	// 3. 领域事件（可选）
	var (
		events       port.EventPublisher = adapter.NopEventPublisher{}
		kafkaAdapter *adapter.EventKafkaAdapter
	)
	if len(cfg.Infra.Kafka.Brokers) > 0 {
		kafkaAdapter = adapter.NewEventKafkaAdapter(
			mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.InventoryTopic),
			mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrderStatusTopic),
		)
		events = kafkaAdapter
	}

	// 4. 业务 Service
	tracer := otel.Tracer(cfg.App.Name)
	pc := application.NewProductCache(productCache)
	handler := interfaces.NewHandler(interfaces.Services{
		Carts:      application.NewCartService(store, tracer),
		Orders:     application.NewOrderService(store, pc, events, tracer),
		Details:    application.NewOrderDetailService(store, pc, events, tracer),
		Catalog:    application.NewCatalogService(store, pc, events, tracer),
		Customers:  application.NewCustomerService(store, tracer),
		Bills:      application.NewBillService(store, tracer),
		Categories: application.NewCategoryService(store, tracer),
		Reviews:    application.NewReviewService(store, tracer),
		Addresses:  application.NewAddressService(store, tracer),
	})
	engine := interfaces.NewEngine(cfg.App.Name, handler)

	err = bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: cfg.App.Name,
		Port:        cfg.App.Port,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.Handle("/", engine)
		},
		Cleanup: func(ctx context.Context) {
			if kafkaAdapter != nil {
				if err := kafkaAdapter.Close(); err != nil {
					logger.Ctx(ctx).Error().Err(err).Msg("Error closing kafka writers")
				}
			}
			if redisCache != nil {
				if err := redisCache.Close(); err != nil {
					logger.Ctx(ctx).Error().Err(err).Msg("Error closing redis client")
				}
			}
			if err := store.Close(); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("Error closing database")
			}
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("service exited with error")
		os.Exit(1)
	}
}
