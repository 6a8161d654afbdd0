package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"realtime-service/internal/bus"
	"realtime-service/internal/config"
	"realtime-service/internal/db"
	"realtime-service/internal/handlers"
	"realtime-service/internal/middleware"
	"realtime-service/internal/observability"
	"realtime-service/internal/repositories"
	"realtime-service/internal/telemetry"
	"realtime-service/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, "realtime-service")
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	database, err := db.Connect(cfg.DBDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	if cfg.AMQPURL != "" {
		publisher, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer publisher.Close()
		observability.SetPublisher(publisher)
	}

	tokenService, err := tokens.NewService(cfg.SocketSecret)
	if err != nil {
		log.Fatalf("failed to build token service: %v", err)
	}

	sessionRepo := repositories.NewSessionRepo(database)
	channelRepo := repositories.NewChannelRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	directMessageRepo := repositories.NewDirectMessageRepo(database)

	hub := bus.NewHub()
	bus.SetDefault(hub)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		hub.SetBridge(bus.NewRedisBridge(ctx, hub, rdb))
	}

	audit := telemetry.NewAuditEmitter("audit_logs", "realtime-service", cfg.Environment)

	authorizer := bus.NewStoreAuthorizer(channelRepo, conversationRepo)
	socketHandler := bus.NewSocketHandler(hub, tokenService, authorizer, cfg.AllowedOrigins)

	messageHandler := handlers.NewMessageHandler(channelRepo, messageRepo, audit)
	directMessageHandler := handlers.NewDirectMessageHandler(conversationRepo, directMessageRepo, audit)
	socketAuthHandler := handlers.NewSocketAuthHandler(tokenService)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("realtime-service"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(sessionRepo)

	api := router.Group("/api")
	api.GET("/socket/auth", authMiddleware, socketAuthHandler.IssueToken)
	api.Any("/socket/io", socketHandler.Handle)

	api.GET("/messages", authMiddleware, messageHandler.ListMessages)
	api.POST("/messages", authMiddleware, messageHandler.PostMessage)
	api.PATCH("/messages/:messageId", authMiddleware, messageHandler.EditMessage)
	api.DELETE("/messages/:messageId", authMiddleware, messageHandler.DeleteMessage)

	api.GET("/direct-messages", authMiddleware, directMessageHandler.ListDirectMessages)
	api.POST("/direct-messages", authMiddleware, directMessageHandler.PostDirectMessage)
	api.PATCH("/direct-messages/:messageId", authMiddleware, directMessageHandler.EditDirectMessage)
	api.DELETE("/direct-messages/:messageId", authMiddleware, directMessageHandler.DeleteDirectMessage)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
