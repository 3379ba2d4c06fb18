package v1

import (
	"store-sync/internal/delivery/http/handler"
	"store-sync/internal/delivery/http/middleware"
	domident "store-sync/internal/domain/identity"
	"store-sync/internal/domain/localstate"
	"store-sync/internal/usecase/session"

	"github.com/gofiber/fiber/v3"
)

type Deps struct {
	Local    localstate.Store
	Provider domident.Provider
	Sessions *session.Service
}

func Register(r fiber.Router, d Deps) {
	if r == nil {
		return
	}

	authMw := middleware.NewAuthMiddleware(d.Provider, d.Sessions)

	sessionHandler := handler.NewSessionHandler(d.Sessions)
	profileHandler := handler.NewProfileHandler(d.Sessions)
	stateHandler := handler.NewStateHandler(d.Local, d.Sessions)

	sessionHandler.RegisterRoutes(r.Group("/auth"), authMw)
	profileHandler.RegisterRoutes(r.Group("/profiles"), authMw)
	stateHandler.RegisterRoutes(r.Group("/state"), authMw)
}
