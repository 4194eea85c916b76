package router

import (
	"context"
	"net/http"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"

	"restopos/internal/auth"
	"restopos/internal/config"
	"restopos/internal/errors"
	"restopos/internal/handler"
	"restopos/internal/ids"
	"restopos/internal/logging"
	"restopos/internal/obs"
	"restopos/internal/ratelimit"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Log         logging.Logger
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	JWT         *auth.JWTService

	// AuthLimiter throttles /api/auth/*. GlobalLimiter throttles everything.
	AuthLimiter   middleware.RateLimiterStore
	GlobalLimiter middleware.RateLimiterStore

	HTTPMetrics *obs.HTTPMetrics
	Gatherer    prometheus.Gatherer

	// Ready reports whether backing stores are reachable.
	Ready func(ctx context.Context) error
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, d Dependencies) {
	e.HTTPErrorHandler = httpErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: ids.NewRequestID,
	}))
	e.Use(requestLogger(d.Log))
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit("1M"))
	if d.HTTPMetrics != nil {
		e.Use(d.HTTPMetrics.Middleware())
	}
	if d.GlobalLimiter != nil {
		e.Use(ratelimit.Middleware(d.GlobalLimiter, cfg.AuthRateWindow()))
	}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "message": "API is running"})
	})
	e.GET("/healthz", readiness(d.Ready))
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(obs.Handler(d.Gatherer)))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	if d.AuthLimiter != nil {
		authGroup.Use(ratelimit.Middleware(d.AuthLimiter, cfg.AuthRateWindow()))
	}
	authGroup.POST("/send-otp", d.AuthHandler.SendOTP)
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.GET("/health", d.AuthHandler.Health)

	// Secured routes (require JWT authentication)
	users := api.Group("/users", echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.UserContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return d.JWT.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusUnauthorized, errors.ErrorResponse{
				Error: "invalid or missing token",
				Code:  errors.CodeUnauthorized,
			})
		},
	}))
	users.GET("/me", d.UserHandler.Me)
	users.DELETE("/me", d.UserHandler.DeleteMe)
}

func readiness(ready func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ready != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}

func requestLogger(log logging.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			args := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			ctx := c.Request().Context()
			if v.Status >= http.StatusInternalServerError {
				log.Error(ctx, "request", append(args, "error", v.Error)...)
				return nil
			}
			log.Info(ctx, "request", args...)
			return nil
		},
	})
}
