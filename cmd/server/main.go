package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rl1809/commerce-backend/internal/adapter/events"
	"github.com/rl1809/commerce-backend/internal/adapter/handler"
	"github.com/rl1809/commerce-backend/internal/adapter/notifier"
	"github.com/rl1809/commerce-backend/internal/adapter/realtime"
	"github.com/rl1809/commerce-backend/internal/adapter/storage"
	"github.com/rl1809/commerce-backend/internal/config"
	"github.com/rl1809/commerce-backend/internal/core/service"
	"github.com/rl1809/commerce-backend/internal/port"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB
	client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect mongodb: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("failed to ping mongodb: %v", err)
	}
	log.Println("connected to mongodb")
	db := client.Database(cfg.MongoDatabase)

	orderRepo := storage.NewMongoOrderRepository(db)
	cartRepo := storage.NewMongoCartRepository(db)
	productRepo := storage.NewMongoProductRepository(db)
	userRepo := storage.NewMongoUserRepository(db)

	if err := cartRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to ensure cart indexes: %v", err)
	}
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Fatalf("failed to ensure user indexes: %v", err)
	}

	// Redis product cache (optional)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("redis unavailable, product lookups go to mongodb: %v", err)
			rdb = nil
		} else {
			log.Println("connected to redis")
		}
	}
	productLookup := storage.NewCachedProductLookup(rdb, productRepo)

	// RabbitMQ order events (optional)
	var publisher port.EventPublisher
	var amqpPublisher *events.AMQPPublisher
	if cfg.RabbitMQURL != "" {
		amqpPublisher, err = events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.OrderExchange)
		if err != nil {
			log.Fatalf("failed to connect rabbitmq: %v", err)
		}
		publisher = amqpPublisher
		log.Println("connected to rabbitmq")
	}

	// The hub is built once here and handed to everything that needs
	// it; there is no lazily initialized global.
	hub := realtime.NewHub()
	mailer := notifier.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)

	orderService := service.NewOrderService(orderRepo, productLookup, userRepo, mailer, hub, publisher)
	cartService := service.NewCartService(cartRepo, productLookup)
	productService := service.NewProductService(productRepo, productLookup, userRepo)
	userService := service.NewUserService(userRepo)

	r := gin.Default()
	r.Use(handler.PrometheusMiddleware())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", gin.WrapF(hub.Serve))

	httpHandler := handler.NewHTTPHandler(orderService, cartService, productService, userService)
	httpHandler.Register(r, handler.AuthMiddleware(cfg.JWTSecret))

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Println("HTTP server stopped")

	hub.Close()
	log.Println("realtime hub stopped")

	if amqpPublisher != nil {
		amqpPublisher.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	client.Disconnect(shutdownCtx)
	log.Println("connections closed")
}
