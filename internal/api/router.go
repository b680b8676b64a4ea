package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/vetapi/clinic-api/docs"
	"github.com/vetapi/clinic-api/internal/api/handler"
	"github.com/vetapi/clinic-api/internal/api/middleware"
	"github.com/vetapi/clinic-api/internal/core/domain"
	"github.com/vetapi/clinic-api/internal/core/ports"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Log         zerolog.Logger
	Auth        ports.AuthService
	Accounts    ports.AccountService
	AccountRepo ports.AccountRepository
	Codec       ports.TokenCodec
	Readiness   map[string]handler.Pinger

	// Registry receives the HTTP metrics and backs /metrics. Nil means the
	// process-wide default registry, where the auth metrics also live.
	Registry *prometheus.Registry

	EnableDebugRoutes bool
	// AuthRateLimit is the per-IP request rate on /auth/*. Zero disables limiting.
	AuthRateLimit float64
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "clinic",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	authCfg := middleware.AuthConfig{Codec: d.Codec, Accounts: d.AccountRepo, Log: d.Log}
	e.Use(middleware.Authenticate(authCfg))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	accountHandler := handler.NewAccountHandler(d.Accounts)

	// --- Auth routes (exempt from bearer inspection) ---
	var authMW []echo.MiddlewareFunc
	if d.AuthRateLimit > 0 {
		authMW = append(authMW, echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
			Store: echomiddleware.NewRateLimiterMemoryStore(rate.Limit(d.AuthRateLimit)),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
		}))
	}
	auth := e.Group("/auth", authMW...)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)

	// /auth/me sits under the exempt prefix, so it authenticates explicitly.
	meCfg := authCfg
	meCfg.ExemptPrefixes = []string{}
	auth.GET("/me", authHandler.Me, middleware.Authenticate(meCfg), middleware.RequireAuth())

	// --- Account management ---
	e.POST("/users", accountHandler.Create, middleware.RequireAuth(), middleware.RBAC(domain.RoleAdmin))

	if d.EnableDebugRoutes {
		e.GET("/debug/token", handler.NewDebugHandler(d.Codec).Token)
	}

	// --- Docs, metrics, health probes (no auth required) ---
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))

	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Readiness).Readiness)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http_request")
			return nil
		},
	})
}
