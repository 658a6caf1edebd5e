// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reachlyhq/reachly/app/dto"
	"github.com/reachlyhq/reachly/app/handlers"
	"github.com/reachlyhq/reachly/app/middleware"
	"github.com/reachlyhq/reachly/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers bundles every handler the router mounts
type Handlers struct {
	Prospect  handlers.ProspectHandlerInterface
	Message   handlers.MessageHandlerInterface
	ICP       handlers.ICPHandlerInterface
	Knowledge handlers.KnowledgeHandlerInterface
	Settings  handlers.SettingsHandlerInterface
	Account   handlers.AccountHandlerInterface
	Usage     handlers.UsageHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	handlers Handlers
	auth     *middleware.AuthMiddleware
	origins  []string
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(h Handlers, auth *middleware.AuthMiddleware, allowedOrigins []string) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Reachly API",
		ServerHeader: "Reachly",
		ErrorHandler: errorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:      app,
		handlers: h,
		auth:     auth,
		origins:  allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	// Prometheus scrape endpoint, outside the API group and rate limiter
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting, no auth)
	api.Get("/health", r.healthCheck)

	// General rate limiting for all API routes
	api.Use(limiter.New(limiter.Config{
		Max:        2000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Unauthenticated endpoints: the provider webhook authenticates via the
	// hosted-auth session name, and deletion history runs pre-signup.
	api.Post("/account/link/notify", r.handlers.Account.LinkNotify)
	api.Get("/account/deletion-history", r.handlers.Account.DeletionHistory)

	authed := api.Group("", r.auth.Authenticate())

	prospects := authed.Group("/prospects")
	prospects.Get("/", r.handlers.Prospect.ListProspects)
	prospects.Get("/summary", r.handlers.Prospect.GetSummary)
	prospects.Get("/export", r.handlers.Prospect.ExportProspects)
	prospects.Get("/stream", r.handlers.Prospect.StreamProspects)
	prospects.Post("/:uuid/archive", r.handlers.Prospect.ArchiveProspect)
	prospects.Delete("/:uuid", r.handlers.Prospect.DeleteProspect)

	authed.Get("/view-rules", r.handlers.Prospect.GetViewRules)
	authed.Put("/view-rules", r.handlers.Prospect.UpdateViewRules)

	messages := authed.Group("/messages")
	messages.Post("/:uuid/send", r.handlers.Message.SendMessage)
	messages.Post("/:uuid/schedule", r.handlers.Message.ScheduleMessage)
	messages.Post("/:uuid/regenerate", r.handlers.Message.RegenerateMessage)
	messages.Put("/:uuid", r.handlers.Message.EditMessage)

	icps := authed.Group("/icps")
	icps.Post("/", r.handlers.ICP.CreateICP)
	icps.Get("/", r.handlers.ICP.ListICPs)
	icps.Get("/:uuid", r.handlers.ICP.GetICP)
	icps.Put("/:uuid", r.handlers.ICP.UpdateICP)
	icps.Post("/:uuid/approve", r.handlers.ICP.ApproveICP)
	icps.Post("/:uuid/activate", r.handlers.ICP.ActivateICP)
	icps.Delete("/:uuid", r.handlers.ICP.DeleteICP)

	knowledge := authed.Group("/knowledge")
	knowledge.Post("/", r.handlers.Knowledge.CreateEntry)
	knowledge.Get("/", r.handlers.Knowledge.ListEntries)
	knowledge.Get("/:uuid", r.handlers.Knowledge.GetEntry)
	knowledge.Put("/:uuid", r.handlers.Knowledge.UpdateEntry)
	knowledge.Delete("/:uuid", r.handlers.Knowledge.DeleteEntry)
	knowledge.Post("/:uuid/restore", r.handlers.Knowledge.RestoreEntry)

	authed.Get("/settings", r.handlers.Settings.GetSettings)
	authed.Put("/settings", r.handlers.Settings.UpdateSettings)
	authed.Get("/dashboard/status", r.handlers.Settings.GetDashboardStatus)
	authed.Post("/dashboard/mark-generating", r.handlers.Settings.MarkGenerating)

	account := authed.Group("/account")
	account.Post("/link", r.handlers.Account.RequestLink)
	account.Get("/status", r.handlers.Account.GetAccountStatus)
	account.Post("/disconnect", r.handlers.Account.Disconnect)
	account.Delete("/", r.handlers.Account.DeleteAccount)

	authed.Get("/usage/summary", r.handlers.Usage.GetMonthlySummary)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000, // 1 year
		HSTSExcludeSubdomains:     false,
		ContentSecurityPolicy:     "default-src 'self'; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	// CORS middleware; the dashboard runs on a different origin
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.origins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"X-Installation-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Response-Time",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression middleware; skip the SSE stream, compression would buffer it
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/stream")
		},
	}))

	// Structured access logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health" || c.Path() == "/metrics"
		},
	}))

	// Request metrics
	r.app.Use(middleware.Metrics())

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "reachly-api",
		},
	})
}

// Not found handler
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
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
