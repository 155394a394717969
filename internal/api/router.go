package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/authify/authify-gateway/internal/api/docs"
	"github.com/authify/authify-gateway/internal/api/handler"
	"github.com/authify/authify-gateway/internal/api/metrics"
	"github.com/authify/authify-gateway/internal/api/middleware"
	"github.com/authify/authify-gateway/internal/core/domain"
)

// RouterConfig is everything NewRouter needs.
type RouterConfig struct {
	Handler handler.Deps
	// Probes are pinged by /health/ready, keyed by dependency name.
	Probes map[string]handler.Probe
	// Registerer receives the HTTP request metrics. Nil means the default
	// registry, which is also what /metrics serves.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator(cfg.Handler.Validator)
	e.HTTPErrorHandler = NewHTTPErrorHandler(cfg.Log)

	registerer := cfg.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(cfg.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  metrics.Namespace,
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Health probes and tooling (no session) ---
	health := handler.NewHealthHandler(cfg.Probes)
	e.GET("/health", health.Liveness)        // liveness: is the process alive?
	e.GET("/health/ready", health.Readiness) // readiness: are the backend and session store up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	h := handler.NewHandler(cfg.Handler)

	api := e.Group("/api", middleware.Session(cfg.Handler.Session))

	// --- Session ---
	api.POST("/login", h.Login)
	api.POST("/logout", h.Logout)
	api.GET("/session", h.Session)
	api.GET("/profile", h.Profile, middleware.RequireLogin())

	// --- Registration ---
	api.POST("/register", h.Register)
	api.POST("/verify-account", h.VerifyAccount)
	api.POST("/verify-account/resend", h.ResendVerification)

	// --- Password reset ---
	api.POST("/password/forgot", h.ForgotPassword)
	api.POST("/password/resend", h.ResendResetOTP)
	api.POST("/password/verify-otp", h.VerifyResetOTP)
	api.POST("/password/reset", h.ResetPassword)
	api.POST("/password/strength", h.PasswordStrength)

	// --- Admin (ROLE_ADMIN only) ---
	admin := api.Group("/admin", middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", h.ListUsers)
	admin.GET("/users/by-email/:email", h.FindUserByEmail)
	admin.GET("/users/:id", h.FindUserByID)
	admin.POST("/users/:id/promote", h.PromoteUser)
	admin.POST("/users/:id/:action", h.UserAction)

	return e
}

// requestLogger writes one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health" || c.Path() == "/metrics"
		},
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
