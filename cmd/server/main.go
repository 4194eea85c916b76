package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"restopos/docs"
	"restopos/internal/auth"
	"restopos/internal/cache"
	"restopos/internal/config"
	"restopos/internal/db"
	"restopos/internal/handler"
	"restopos/internal/logging"
	"restopos/internal/mail"
	"restopos/internal/obs"
	"restopos/internal/ratelimit"
	"restopos/internal/repository"
	"restopos/internal/router"
	"restopos/internal/service"
)

// @title Restaurant POS Auth API
// @version 1.0
// @description Email OTP signup, password login and account endpoints for the restaurant POS.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error(context.Background(), "server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	gormDB, err := db.NewMySQL(cfg.MySQLDSN, !cfg.IsProduction())
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Warn(ctx, "redis not reachable at startup", "addr", cfg.RedisAddr, "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	otpStore := auth.NewOTPStore(cacheClient)
	mailer, err := mail.New(cfg.Mail, cfg.IsProduction(), log)
	if err != nil {
		return err
	}

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		otpStore,
		jwtService,
		mailer,
		service.AuthConfig{OTPExpiry: cfg.OTPExpiry(), SaltRounds: cfg.SaltRounds},
		log,
		obs.NewAuthMetrics(reg),
	)
	userService := service.NewUserService(userRepo, cacheClient, log)

	ready := func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
		return cacheClient.Ping(ctx)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	router.Register(e, cfg, router.Dependencies{
		Log:           log,
		AuthHandler:   handler.NewAuthHandler(authService, log),
		UserHandler:   handler.NewUserHandler(userService),
		JWT:           jwtService,
		AuthLimiter:   ratelimit.NewSlidingWindowStore(cacheClient.Redis(), "ratelimit:auth:", cfg.AuthRateLimitMax, cfg.AuthRateWindow(), log),
		GlobalLimiter: ratelimit.NewMemoryStore(cfg.GlobalRateLimitMax, cfg.AuthRateWindow()),
		HTTPMetrics:   obs.NewHTTPMetrics(reg),
		Gatherer:      reg,
		Ready:         ready,
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "http://"), "https://")
	}
	log.Info(ctx, "swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		log.Info(ctx, "server listening", "addr", addr, "env", cfg.Environment)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
