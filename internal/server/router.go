package server

import (
	"time"

	"task-weather/backend/internal/handlers"
	"task-weather/backend/internal/middleware"
	"task-weather/backend/internal/monitoring"
	"task-weather/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Dependencies struct {
	DB             *gorm.DB
	AuthService    services.AuthService
	Tokens         middleware.TokenValidator
	TaskService    services.TaskService
	Presenter      *services.TaskPresenter
	Monitor        *monitoring.Monitor
	AllowedOrigins []string
	AccessLog      bool
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// NewRouter wires the HTTP surface. Task routes sit behind the auth gate.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	if deps.AccessLog {
		router.Use(gin.Logger())
	}
	router.Use(middleware.RequestIDMiddleware())
	// The monitor wraps recovery so recovered panics are counted as 500s.
	if deps.Monitor != nil {
		router.Use(deps.Monitor.Middleware())
	}
	router.Use(middleware.RecoveryWithLog())
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(deps.AllowedOrigins)))
	}

	authHandler := handlers.NewAuthHandler(deps.DB, deps.AuthService)
	taskHandler := handlers.NewTaskHandler(deps.DB, deps.TaskService, deps.Presenter)

	router.GET("/", handlers.Index)
	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)

	tasks := router.Group("/tasks", middleware.AuthGate(deps.Tokens))
	{
		tasks.GET("", taskHandler.GetTasks)
		tasks.GET("/", taskHandler.GetTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.POST("/", taskHandler.CreateTask)
		tasks.GET("/:id", taskHandler.GetTaskByID)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	if deps.Monitor != nil {
		router.GET("/health", deps.Monitor.HealthHandler())
		router.GET("/live", deps.Monitor.LivenessHandler())
		router.GET("/metrics", deps.Monitor.MetricsHandler())
	}

	return router
}
