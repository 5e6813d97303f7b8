// Package server hosts the gateway proxy, the webhook and the conversation
// API on fiber, and adapts the same handlers to AWS Lambda.
package server

import (
	"context"
	"time"

	"github.com/Abraxas-365/crmturbo/auth"
	"github.com/Abraxas-365/crmturbo/conversation"
	"github.com/Abraxas-365/crmturbo/docx"
	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/Abraxas-365/crmturbo/logx"
	"github.com/Abraxas-365/crmturbo/proxy"
	"github.com/Abraxas-365/crmturbo/webhook"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const (
	FunctionsBase = "/functions/v1"
	ProxyPath     = FunctionsBase + "/evolution-api"
	WebhookPath   = FunctionsBase + "/evolution-webhook"
)

// Deps are the services the routes call into
type Deps struct {
	Proxy         *proxy.Service
	Webhook       *webhook.Handler
	Conversations *conversation.Service
	Verifier      auth.TokenVerifier
	Logger        *logx.Logger
	// RequestLog enables fiber's access log
	RequestLog bool
}

type Server struct {
	app    *fiber.App
	deps   Deps
	logger *logx.Logger
}

func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logx.GetLogger()
	}

	app := fiber.New(fiber.Config{
		AppName:               "crmturbo",
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          errx.FiberErrorHandler,
	})

	app.Use(recover.New())
	if deps.RequestLog {
		app.Use(logger.New(logger.Config{
			Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
			TimeFormat: "15:04:05",
		}))
	}
	app.Use(corsMiddleware)

	s := &Server{app: app, deps: deps, logger: deps.Logger}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC()})
	})
	docx.Register(s.app, "/docs", Catalogue()...)

	s.app.Post(ProxyPath, s.handleProxy)
	s.app.Post(WebhookPath, s.handleWebhook)

	api := s.app.Group("/api", s.authMiddleware)
	api.Get("/conversations", s.handleListConversations)
	api.Post("/conversations", s.handleStartConversation)
	api.Get("/conversations/:id/messages", s.handleListMessages)
	api.Post("/conversations/:id/messages", s.handleSendMessage)
	api.Post("/conversations/:id/open", s.handleOpenConversation)
	api.Post("/conversations/:id/close", s.handleCloseConversation)
	api.Post("/instances/:name", s.handleBindInstance)
	api.Get("/templates", s.handleListTemplates)
	api.Post("/templates", s.handleCreateTemplate)
}

// App exposes the fiber app, mostly for app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("Listening on %s", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleProxy(c *fiber.Ctx) error {
	res := s.deps.Proxy.Handle(c.UserContext(), c.Get(fiber.HeaderAuthorization), c.Body())
	return c.Status(res.Status).JSON(res.Body)
}

func (s *Server) handleWebhook(c *fiber.Ctx) error {
	res := s.deps.Webhook.Handle(c.UserContext(), c.Get(webhook.SecretHeader), c.Body())
	return c.Status(res.Status).JSON(res.Body)
}
