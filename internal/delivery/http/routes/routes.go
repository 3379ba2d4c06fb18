package routes

import (
	"log"

	"store-sync/internal/database"
	"store-sync/internal/delivery/http/handler"
	domident "store-sync/internal/domain/identity"
	"store-sync/internal/domain/localstate"
	"store-sync/internal/infrastructure/cache"
	"store-sync/internal/usecase/session"
	"store-sync/internal/ws"

	"github.com/gofiber/fiber/v3"
)

// Deps carries the wired object graph into route registration.
type Deps struct {
	DB       database.DB
	Cache    *cache.Redis
	Local    localstate.Store
	Provider domident.Provider
	Sessions *session.Service
	Hub      *ws.Hub
	Logger   *log.Logger
}

type Registry struct {
	health *handler.HealthHandler
}

func NewRegistry(d Deps) *Registry {
	return &Registry{health: handler.NewHealthHandler(d.DB, d.Cache)}
}

func (r *Registry) Register(app *fiber.App, d Deps) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerEvents(app, d)
	r.registerAPI(app, d)
}

func (r *Registry) registerHealth(app *fiber.App) {
	r.health.RegisterRoutes(app)
}

func (r *Registry) registerEvents(app *fiber.App, d Deps) {
	if d.Hub == nil {
		return
	}
	wsHandler := ws.NewHandler(d.Hub, d.Logger)
	app.Get("/events", wsHandler.HandleEventsWS)
}

func (r *Registry) registerAPI(app *fiber.App, d Deps) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), d)
}
