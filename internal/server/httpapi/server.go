// Package httpapi exposes the record lifecycle operations over HTTP.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/server/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerConfig struct {
	ListenAddr string
	Auth       AuthConfig
}

type Server struct {
	app    *fiber.App
	logger logging.Logger
	config ServerConfig
}

// NewServer builds the Fiber application. gatherer may be nil, in which case
// /metrics is not served.
func NewServer(cfg ServerConfig, registry *services.Registry, gatherer prometheus.Gatherer, logger logging.Logger) *Server {
	logger = logger.With("module", "httpapi")

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
	})

	s := &Server{app: app, logger: logger, config: cfg}
	s.setupMiddleware(cfg)
	s.setupRoutes(NewHandlers(registry, logger), gatherer)
	return s
}

func (s *Server) setupMiddleware(cfg ServerConfig) {
	s.app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	s.app.Use(requestid.New())
	s.app.Use(NewAuthMiddleware(cfg.Auth, s.logger))

	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/healthz" || path == "/metrics" {
			return c.Next()
		}
		s.logger.Debug(c.UserContext(), "api request",
			"method", c.Method(),
			"path", path,
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey))
		return c.Next()
	})
}

func (s *Server) setupRoutes(h *Handlers, gatherer prometheus.Gatherer) {
	s.app.Get("/healthz", h.Liveness)
	if gatherer != nil {
		s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
			ErrorHandling: promhttp.ContinueOnError,
		})))
	}

	v1 := s.app.Group("/api/v1")

	v1.Post("/conversations/:id/messages", h.AddMessage)

	v1.Get("/:collection", h.List)
	v1.Post("/:collection", h.Create)
	v1.Delete("/:collection", h.PurgeAll)

	v1.Get("/:collection/trash", h.ListTrash)
	v1.Get("/:collection/:id", h.Get)
	v1.Delete("/:collection/:id", h.SoftDelete)
	v1.Post("/:collection/:id/restore", h.Restore)
	v1.Delete("/:collection/:id/permanent", h.Purge)
}

// Start listens on the configured address. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Info(context.Background(), "http server starting", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	s.logger.Info(context.Background(), "http server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

func customErrorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error(c.UserContext(), "unhandled error",
				"status", code, "path", c.Path(), "method", c.Method(), "error", err)
		}

		detail := err.Error()
		if code == fiber.StatusInternalServerError {
			detail = "An internal error occurred"
		}
		return problemResponse(c, code, "http_error", http.StatusText(code), detail)
	}
}
