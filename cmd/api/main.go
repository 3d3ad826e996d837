package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-pos-ws/internal/cache"
	"go-pos-ws/internal/config"
	"go-pos-ws/internal/handler"
	applog "go-pos-ws/internal/logger"
	"go-pos-ws/internal/middleware"
	"go-pos-ws/internal/notify"
	"go-pos-ws/internal/service"
	"go-pos-ws/internal/ws"
	"go-pos-ws/pkg/database"
	"go-pos-ws/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	cfg := config.LoadEnv()

	log, err := applog.New(cfg.App.Env, cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	store, err := database.OpenStore(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()

	// 3. Setup WebSocket Hub and notifiers
	wsHub := ws.NewHub(log)
	go wsHub.Run(ctx)

	notifiers := notify.Fanout{wsHub}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
		log.Info("publishing order events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	dispatcher := notify.NewDispatcher(notifiers, log)

	// 4. Idempotency keys
	var idemStore cache.IdempotencyStore = cache.NewMemoryStore(cfg.Redis.TTL)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, idempotency keys will fail open", zap.Error(err))
		}
		idemStore = cache.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.Redis.TTL)
	}

	// 5. Dependency Injection (Wiring Layers)
	tokens := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	mutator := service.NewStockMutator()
	guard := service.NewDuplicateGuard(store.Orders(), cfg.Orders.DuplicateWindow, cfg.Orders.DuplicateTolerance)

	orderService := service.NewOrderService(store, mutator, guard, dispatcher, log)
	invService := service.NewInventoryService(store, mutator, dispatcher, log)
	stockService := service.NewStockService(store, mutator, dispatcher, cfg.Orders.LowStockThreshold, log)
	cartService := service.NewCartService(store, orderService)
	dashService := service.NewDashboardService(store, cfg.Orders.LowStockThreshold)
	authService := service.NewAuthService(store.Users(), tokens, dispatcher, cfg.JWT.IdleTime)
	reader := service.NewOrderReader(store.Orders(), store.OrderRows(), log)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	handler.Router{
		Auth:             handler.NewAuthHandler(authService),
		Inventory:        handler.NewInventoryHandler(invService, stockService),
		Orders:           handler.NewOrderHandler(orderService, reader),
		Carts:            handler.NewCartHandler(cartService),
		Dashboard:        handler.NewDashboardHandler(dashService),
		Hub:              wsHub,
		RequireAuth:      middleware.RequireAuth(tokens, store.Users()),
		OptionalAuth:     middleware.OptionalAuth(tokens, store.Users()),
		Idempotency:      middleware.Idempotency(idemStore, log),
		RequirePrivilege: middleware.RequirePrivilege,
	}.Register(app)

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}
