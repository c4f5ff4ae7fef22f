package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-weather/backend/internal/cache"
	"task-weather/backend/internal/config"
	"task-weather/backend/internal/database"
	"task-weather/backend/internal/monitoring"
	"task-weather/backend/internal/server"
	"task-weather/backend/internal/services"
	"task-weather/backend/internal/weather"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(pool.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if cfg.Seed.File != "" {
		if _, err := database.SeedTasksFromFile(pool.DB, cfg.Seed.File, cfg.Seed.Username); err != nil {
			log.Fatalf("Failed to seed tasks: %v", err)
		}
	}

	monitor := monitoring.NewMonitor()
	monitor.RegisterHealthCheck("database", pool.Health)
	monitor.RegisterStats("database", func() interface{} { return pool.Stats() })

	weatherClient := weather.NewClient(cfg.Weather, nil)
	if !weatherClient.IsConfigured() {
		log.Printf("OW_KEY is not set; tasks with a location will report %q", weather.NoDataMessage)
	}
	monitor.RegisterStats("weather_breaker", func() interface{} { return weatherClient.BreakerStats() })

	var lookup weather.Lookuper = weatherClient
	if cfg.Weather.CacheEnabled {
		redisClient := newRedisClient(cfg)
		defer redisClient.Close()

		weatherCache := cache.NewRedisCache(redisClient)
		lookup = weather.NewCachedLookup(weatherClient, weatherCache, cfg.Weather.CacheTTL)
		monitor.RegisterHealthCheck("redis", weatherCache.Health)
		monitor.RegisterStats("weather_cache", func() interface{} { return weatherCache.Metrics() })
	}

	tokens := services.NewTokenService(cfg.Auth.JWTSecret)
	router := server.NewRouter(server.Dependencies{
		DB:             pool.DB,
		AuthService:    services.NewAuthService(services.NewBcryptHasher(cfg.Auth.BCryptCost), tokens),
		Tokens:         tokens,
		TaskService:    services.NewTaskService(),
		Presenter:      services.NewTaskPresenter(lookup),
		Monitor:        monitor,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AccessLog:      true,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Server listening on %s (%s)", srv.Addr, cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}

func newRedisClient(cfg *config.Config) *redis.Client {
	client := cache.NewRedisClient(&cache.CacheConfig{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		MaxRetries:   cfg.Redis.MaxRetries,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis at %s is unreachable, weather lookups will bypass the cache until it recovers: %v", cfg.GetRedisAddr(), err)
	}
	return client
}
