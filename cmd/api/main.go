package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/medishop/internal/cart"
	"github.com/flicky/medishop/internal/catalog"
	"github.com/flicky/medishop/internal/config"
	"github.com/flicky/medishop/internal/currency"
	"github.com/flicky/medishop/internal/handler"
	"github.com/flicky/medishop/internal/middleware"
	"github.com/flicky/medishop/internal/migrations"
	"github.com/flicky/medishop/internal/payment"
	"github.com/flicky/medishop/internal/repository"
	"github.com/flicky/medishop/internal/service"
	"github.com/flicky/medishop/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	if cfg.DB.AutoMigrate {
		if err := migrations.Up(cfg.DB.DSN()); err != nil {
			log.Error("run migrations", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)

	if cfg.Catalog.Seed {
		products, err := catalog.Default()
		if err != nil {
			log.Error("load seed catalog", "error", err)
			os.Exit(1)
		}
		if _, err := catalog.Seed(ctx, productRepo, products, log); err != nil {
			log.Error("seed catalog", "error", err)
			os.Exit(1)
		}
	}

	var cartStorage cart.Storage
	switch cfg.Cart.Backend {
	case "memory":
		cartStorage = cart.NewMemoryStorage()
	default:
		cartStorage = cart.NewRedisStorage(redisClient, cfg.Cart.TTL)
	}
	log.Info("cart storage ready", "backend", cfg.Cart.Backend)

	gateway := payment.NewBreaker(payment.Stub{}, payment.BreakerSettings{
		Timeout:          cfg.Payment.Timeout,
		MaxFailures:      cfg.Payment.BreakerFailures,
		OpenStateTimeout: cfg.Payment.BreakerOpenDelay,
	})

	// Services
	productSvc := service.NewProductService(productRepo, redisClient)
	services := handler.Services{
		Auth:     service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration),
		Role:     service.NewRoleService(userRepo, log),
		User:     service.NewUserService(userRepo),
		Product:  productSvc,
		Cart:     service.NewCartService(cartStorage, productSvc, log),
		Checkout: service.NewCheckoutService(orderRepo, gateway, worker.NewPublisher(amqpCh), log),
		Order:    service.NewOrderService(orderRepo),
	}

	// Worker
	orderWorker := worker.NewOrderWorker(amqpCh, worker.NewLogMailer(log), redisClient, cfg.Notify.AdminEmail, log)

	// Router
	if err := handler.RegisterValidators(); err != nil {
		log.Error("register validators", "error", err)
		os.Exit(1)
	}
	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:       cfg.JWT.Secret,
		CartCookie:      cfg.Cart.CookieName,
		CartTTL:         cfg.Cart.TTL,
		CartSecure:      cfg.Cart.CookieSecure,
		DefaultCurrency: currency.Code(cfg.Currency.Default),
		Rates:           currency.DefaultRates(),
		Metrics:         middleware.NewMetrics("api"),
		Health:          handler.NewHealthHandler(dbPool, redisClient, amqpConn),
	}, services)

	if err := orderWorker.Start(ctx); err != nil {
		log.Error("start order worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	orderWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
