package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/jobos/jobos-backend/internal/config"
	"github.com/jobos/jobos-backend/internal/database"
	"github.com/jobos/jobos-backend/internal/handler"
	"github.com/jobos/jobos-backend/internal/middleware"
	"github.com/jobos/jobos-backend/internal/queue"
	"github.com/jobos/jobos-backend/internal/repository"
	"github.com/jobos/jobos-backend/internal/router"
	"github.com/jobos/jobos-backend/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is down; middleware degrades gracefully

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	resetTokens := repository.NewResetTokenRepo(db)
	credits := repository.NewCreditRepo(db)
	plans := repository.NewPlanRepo(db)

	tokens := service.NewTokenService(sessions, users, cfg.JWTSecret, cfg.AccessTTLMin, cfg.RefreshTTLDays)
	auth := service.NewAuthService(users, tokens, cfg.BcryptCost)
	resets := service.NewPasswordResetService(users, resetTokens, sessions, queue.NewOtpPublisher(), service.ResetConfig{
		OtpExpiry:   time.Duration(cfg.OtpExpiryMin) * time.Minute,
		RateLimit:   time.Duration(cfg.OtpRateLimitMin) * time.Minute,
		MaxAttempts: cfg.OtpMaxAttempts,
		BcryptCost:  cfg.BcryptCost,
	})
	creditSvc := service.NewCreditService(credits, plans, users, cfg.TxPageSize)

	// Background consumer that drains the OTP notification queue.
	go func() {
		if err := queue.StartOtpConsumer(); err != nil {
			log.Printf("otp consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(auth, tokens), handler.NewPasswordResetHandler(resets), cfg.JWTSecret)
	router.RegisterCredits(e, handler.NewCreditHandler(creditSvc), cfg.JWTSecret, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
