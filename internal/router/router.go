// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/concertify/internal/config"
	"github.com/iliyamo/concertify/internal/handler"
	"github.com/iliyamo/concertify/internal/middleware"
	"github.com/iliyamo/concertify/internal/model"
)

// Handlers groups the HTTP handlers.  Auth is nil when no JWT secret is
// configured, which also leaves the JWT-only routes unmounted.
type Handlers struct {
	Health       *handler.HealthHandler
	Reservations *handler.ReservationHandler
	Payments     *handler.PaymentHandler
	Webhook      *handler.WebhookHandler
	Events       *handler.EventHandler
	Auth         *handler.AuthHandler
}

// Options carries the settings the middleware chain needs.  A nil Redis
// client disables both the rate limiter and the response cache.
type Options struct {
	JWTSecret             string
	RequireAdminForStatus bool
	RateLimit             config.RateLimitConfig
	Cache                 config.CacheConfig
	Redis                 *redis.Client
}

// New builds the echo instance with every route mounted.
func New(h Handlers, o Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.CORS())

	RegisterRoutes(e, h.Health)

	api := e.Group("/api", middleware.NewTokenBucket(o.RateLimit, o.Redis))
	authOn := h.Auth != nil && o.JWTSecret != ""

	var statusGuard []echo.MiddlewareFunc
	if authOn && o.RequireAdminForStatus {
		statusGuard = append(statusGuard, middleware.JWTAuth(o.JWTSecret), middleware.RequireRole(model.RoleAdmin))
	}
	RegisterReservations(api, h.Reservations, statusGuard...)
	if authOn {
		api.GET("/reservations/mine", h.Reservations.Mine, middleware.JWTAuth(o.JWTSecret))
	}
	RegisterPayments(api, h.Payments)
	RegisterWebhooks(api, h.Webhook)
	RegisterEvents(api, h.Events, middleware.NewRedisCache(o.Cache, o.Redis))
	if authOn {
		RegisterAuth(api, h.Auth, o.JWTSecret)
	}
	return e
}

// RegisterRoutes mounts the unauthenticated top-level routes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterReservations mounts the reservation CRUD.  guard, when given,
// protects only the status change.
func RegisterReservations(g *echo.Group, h *handler.ReservationHandler, guard ...echo.MiddlewareFunc) {
	g.GET("/reservations", h.List)
	g.POST("/reservations", h.Create)
	g.PATCH("/reservations/:id", h.UpdateStatus, guard...)
}

func RegisterPayments(g *echo.Group, h *handler.PaymentHandler) {
	g.GET("/payments", h.List)
	g.POST("/payments", h.Create)
}

// RegisterWebhooks mounts provider callbacks.  They read the raw body, so
// nothing before them may consume it.
func RegisterWebhooks(g *echo.Group, h *handler.WebhookHandler) {
	g.POST("/paypal/webhook", h.PayPal)
}

// RegisterEvents mounts the catalog.  Listings go through cache; the seat
// map changes with every reservation and is never cached.
func RegisterEvents(g *echo.Group, h *handler.EventHandler, cache echo.MiddlewareFunc) {
	g.GET("/events", h.List, cache)
	g.GET("/events/:id", h.Get, cache)
	g.GET("/events/:id/seats", h.Seats)
}

func RegisterAuth(g *echo.Group, a *handler.AuthHandler, jwtSecret string) {
	auth := g.Group("/auth")
	auth.POST("/register", a.Register)
	auth.POST("/login", a.Login)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/logout", a.Logout)
	auth.GET("/me", a.Me, middleware.JWTAuth(jwtSecret))
}
