package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/CUknot/chat_backend/cache"
	"github.com/CUknot/chat_backend/config"
	"github.com/CUknot/chat_backend/controllers"
	"github.com/CUknot/chat_backend/database"
	"github.com/CUknot/chat_backend/docs"
	"github.com/CUknot/chat_backend/jobs"
	"github.com/CUknot/chat_backend/metrics"
	"github.com/CUknot/chat_backend/middleware"
	"github.com/CUknot/chat_backend/pubsub"
	"github.com/CUknot/chat_backend/repository"
	"github.com/CUknot/chat_backend/services"
	"github.com/CUknot/chat_backend/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Chat API
// @version         1.0
// @description     Chat service for private and group rooms
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	instanceID := uuid.NewString()
	redisClient := openRedis(ctx, cfg)
	var presence cache.Presence = cache.Noop{}
	if redisClient != nil {
		presence = cache.NewRedisPresence(redisClient, cfg.PresenceTTL, cfg.UnreadTTL)
	}
	broker := openBroker(cfg, redisClient, instanceID)
	defer broker.Close()

	publisher := pubsub.NewBroadcaster(broker, instanceID)
	defer publisher.Close()

	deps := services.Deps{
		Store:     repository.NewStore(db),
		Presence:  presence,
		Publisher: publisher,
		InviteTTL: cfg.InviteTTL,
	}
	chat := services.NewChatService(deps)
	read := services.NewReadService(deps)
	invites := services.NewInviteService(deps, chat)

	hub := websocket.NewHub()
	go hub.Run(ctx, broker)
	defer hub.Close()

	if redisClient != nil {
		go func() {
			if err := jobs.RunScheduled(ctx, cfg.RedisURL, cfg.SweepInterval, invites); err != nil {
				log.Printf("jobs: scheduler unavailable, sweeping locally: %v", err)
				jobs.RunTicker(ctx, cfg.SweepInterval, invites)
			}
		}()
	} else {
		go jobs.RunTicker(ctx, cfg.SweepInterval, invites)
	}

	// Set up Swagger info
	docs.SwaggerInfo.Host = "localhost:" + cfg.Port
	docs.SwaggerInfo.BasePath = "/"
	docs.SwaggerInfo.Schemes = []string{"http"}

	// Set up router
	router := gin.Default()
	router.Use(middleware.CORS(cfg.OriginAllowed, cfg.OriginListed))

	router.GET("/health", controllers.Health(database.Ping(db), presence.Ping))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// WebSocket route
	gateway := websocket.NewGateway(hub, chat, read, cfg.JWTSecret, cfg.OriginAllowed)
	router.GET("/ws", gateway.HandleConnection)

	// Protected routes
	api := router.Group("/")
	api.Use(middleware.JWTAuth(cfg.JWTSecret))
	controllers.New(chat, read, invites).Register(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("Server running on port %s (instance %s)", cfg.Port, instanceID)
		log.Printf("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// openRedis connects when REDIS_URL is set. An unreachable server is logged
// and the process runs without a cache.
func openRedis(ctx context.Context, cfg config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, running without a cache")
		return nil
	}
	client, err := cache.Open(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable, running without a cache: %v", err)
		return nil
	}
	return client
}

func openBroker(cfg config.Config, redisClient *redis.Client, instanceID string) pubsub.Broker {
	switch cfg.Broker {
	case config.BrokerKafka:
		return pubsub.NewKafkaBroker(cfg.KafkaBrokers, cfg.KafkaTopic, instanceID)
	case config.BrokerRedis:
		if redisClient != nil {
			return pubsub.NewRedisBroker(redisClient)
		}
		if cfg.RedisURL != "" {
			// Configured for Redis but it is down; fanning out locally would
			// split the cluster, so live delivery is off until restart.
			log.Println("pubsub: Redis broker unavailable, live delivery disabled")
			return pubsub.NoopBroker{}
		}
	}
	return pubsub.NewLocalBroker()
}
