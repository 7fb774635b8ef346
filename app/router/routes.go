// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"os"
	"slices"
	"time"

	"github.com/amirphl/infobip-sms-bridge/app/dto"
	"github.com/amirphl/infobip-sms-bridge/app/handlers"
	"github.com/amirphl/infobip-sms-bridge/app/middleware"
	"github.com/amirphl/infobip-sms-bridge/config"
	"github.com/amirphl/infobip-sms-bridge/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const healthPath = "/api/v1/health"

// HealthProbe reports whether a backing service is reachable
type HealthProbe func(ctx context.Context) error

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app             *fiber.App
	cfg             *config.ProductionConfig
	callbackHandler handlers.SMSCallbackHandlerInterface
	smsHandler      handlers.SMSHandlerInterface
	apiKey          *middleware.APIKeyMiddleware
	probes          map[string]HealthProbe
	logger          zerolog.Logger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	callbackHandler handlers.SMSCallbackHandlerInterface,
	smsHandler handlers.SMSHandlerInterface,
	apiKey *middleware.APIKeyMiddleware,
	probes map[string]HealthProbe,
	logger zerolog.Logger,
) Router {
	r := &FiberRouter{
		cfg:             cfg,
		callbackHandler: callbackHandler,
		smsHandler:      smsHandler,
		apiKey:          apiKey,
		probes:          probes,
		logger:          logger.With().Str("component", "router").Logger(),
	}

	r.app = fiber.New(fiber.Config{
		AppName:      "InfoBip SMS Bridge",
		ServerHeader: "infobip-sms-bridge",
		ErrorHandler: r.errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// Client IPs come from ProxyHeader only when the peer is a trusted proxy
		TrustProxy: len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: cfg.Server.TrustedProxies,
		},
		ProxyHeader: cfg.Server.ProxyHeader,
	})

	return r
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.logger.Info().Msg("Setting up routes...")

	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group("/api/v1")

	api.Get("/health", r.healthCheck)

	sms := api.Group("/sms")

	// Vendor callbacks carry no credentials and must always be acknowledged
	sms.Post("/callback", r.callbackHandler.Receive)
	sms.Post("/send", r.apiKey.Authenticate(), r.smsHandler.Send)

	r.app.Use(r.notFoundHandler)

	r.logger.Info().Msg("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: fiber.HeaderXRequestID,
		Generator: func() string {
			return uuid.NewString()
		},
	}))

	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: r.cfg.Security.XContentTypeOptions,
		XFrameOptions:      r.cfg.Security.XFrameOptions,
		HSTSMaxAge:         31536000, // 1 year
		ReferrerPolicy:     r.cfg.Security.ReferrerPolicy,
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{fiber.HeaderXRequestID},
		AllowCredentials: r.cfg.Security.AllowCredentials && !slices.Contains(r.cfg.Security.AllowedOrigins, "*"),
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.Level(r.cfg.Server.CompressionLevel),
		}))
	}

	if r.cfg.Logging.EnableAccessLog {
		r.app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Stream:     os.Stdout,
			Next: func(c fiber.Ctx) bool {
				return c.Path() == healthPath
			},
		}))
	}

	r.app.Use(middleware.Metrics())

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.Error().
				Interface("panic", e).
				Interface("request_id", c.Locals("requestid")).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Str("ip", c.IP()).
				Msg("Recovered from panic")
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	r.logger.Info().Str("address", address).Msg("Starting server")
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// healthCheck reports service liveness plus the state of every probe
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	status := fiber.StatusOK
	checks := make(fiber.Map, len(r.probes))
	for name, probe := range r.probes {
		if err := probe(ctx); err != nil {
			r.logger.Warn().Err(err).Str("probe", name).Msg("Health probe failed")
			checks[name] = "down"
			status = fiber.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}

	message, state := "Service is healthy", "ok"
	if status != fiber.StatusOK {
		message, state = "Service is degraded", "degraded"
	}

	return c.Status(status).JSON(dto.APIResponse{
		Success: status == fiber.StatusOK,
		Message: message,
		Data: fiber.Map{
			"status":     state,
			"checks":     checks,
			"timestamp":  utils.UTCNowUnix(),
			"version":    r.cfg.Deployment.Version,
			"commit":     r.cfg.Deployment.CommitHash,
			"build_time": r.cfg.Deployment.BuildTime,
			"service":    "infobip-sms-bridge",
		},
	})
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func (r *FiberRouter) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "An internal server error occurred"
	errorCode := "INTERNAL_ERROR"

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if code < fiber.StatusInternalServerError {
			message = e.Message
			errorCode = "REQUEST_ERROR"
		}
	}

	r.logger.Error().Err(err).Int("status", code).Msg("Request failed")

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errorCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNowUnix(),
				"request_id": requestID,
			},
		},
	})
}
