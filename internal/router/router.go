package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/renovation-appeals/internal/config"
	"github.com/iliyamo/renovation-appeals/internal/handler"
	"github.com/iliyamo/renovation-appeals/internal/middleware"
	"github.com/iliyamo/renovation-appeals/internal/model"
	"github.com/iliyamo/renovation-appeals/internal/repository"
)

// Handlers collects every handler the routing table needs.
type Handlers struct {
	Auth       *handler.AuthHandler
	Users      *handler.UserHandler
	Appeals    *handler.AppealHandler
	Statuses   *handler.ReferenceHandler
	Categories *handler.ReferenceHandler
	Devices    *handler.DeviceHandler
	Knowledge  *handler.KnowledgeHandler
}

// Register wires the whole routing table onto the Echo instance.
//
// Public routes: health check, token issuing, self-registration, and the
// read side of the reference tables plus the knowledge base (both sit
// behind the Redis response cache since they change rarely).  Everything
// else requires a Bearer token; reference mutations additionally require
// the inspector role.  The token-bucket rate limiter applies globally.
func Register(e *echo.Echo, cfg config.Config, h Handlers, users *repository.UserRepo, rdb *redis.Client) {
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e.GET("/healthz", handler.Health)
	e.POST("/token", h.Auth.Token)
	e.POST("/users", h.Users.Register)

	e.GET("/appeal_statuses", h.Statuses.List, cache)
	e.GET("/appeal_statuses/:id", h.Statuses.Get, cache)
	e.GET("/appeal_categories", h.Categories.List, cache)
	e.GET("/appeal_categories/:id", h.Categories.Get, cache)
	e.GET("/knowledge_base/:category", h.Knowledge.List, cache)

	auth := e.Group("", middleware.Auth(cfg.JWTSecret, users))

	auth.GET("/users", h.Users.List)
	auth.GET("/users/:id", h.Users.Get)
	auth.PUT("/users/:id", h.Users.Update)
	auth.DELETE("/users/:id", h.Users.Delete)
	auth.POST("/users/me/devices", h.Devices.Register)

	auth.POST("/appeals", h.Appeals.Create)
	auth.GET("/appeals", h.Appeals.List)
	auth.GET("/appeals/:id", h.Appeals.Get)
	auth.PUT("/appeals/:id", h.Appeals.Update)
	auth.GET("/appeals/:id/messages", h.Appeals.ListMessages)
	auth.POST("/appeals/:id/messages", h.Appeals.CreateMessage)

	inspector := auth.Group("", middleware.RequireRole(model.RoleInspector))
	inspector.POST("/appeal_statuses", h.Statuses.Create)
	inspector.PUT("/appeal_statuses/:id", h.Statuses.Update)
	inspector.DELETE("/appeal_statuses/:id", h.Statuses.Delete)
	inspector.POST("/appeal_categories", h.Categories.Create)
	inspector.PUT("/appeal_categories/:id", h.Categories.Update)
	inspector.DELETE("/appeal_categories/:id", h.Categories.Delete)
}
