package main

import (
	"log"
	"net/http"
	"time"

	"contactvault/docs"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"contactvault/internal/auth"
	"contactvault/internal/cache"
	"contactvault/internal/config"
	"contactvault/internal/db"
	"contactvault/internal/handler"
	"contactvault/internal/model"
	"contactvault/internal/repository"
	"contactvault/internal/router"
	"contactvault/internal/service"
)

// @title Contact Vault API
// @version 1.0
// @description Multi-tenant contact service with JWT authentication and soft-deleting contact books.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration: %v", err)
	}
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e := echo.New()
	e.Use(middleware.RequestID())

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Contact{},
	); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	queryTimeout := time.Duration(cfg.QueryTimeoutSeconds) * time.Second
	userRepo := repository.NewUserRepository(gormDB, queryTimeout)
	contactRepo := repository.NewContactRepository(gormDB, queryTimeout)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTExpiryMinutes)

	authService := service.NewAuthService(userRepo, jwtService, nil)
	contactService := service.NewContactService(contactRepo, cacheClient, nil)

	authHandler := handler.NewAuthHandler(authService)
	contactHandler := handler.NewContactHandler(contactService)

	router.Register(e, jwtService, authHandler, contactHandler)

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server start: %v", err)
	}
}
