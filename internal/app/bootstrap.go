package app

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"store-sync/internal/config"
	"store-sync/internal/delivery/http/middleware"
	"store-sync/internal/delivery/http/routes"
	"store-sync/internal/domain/localstate"
	"store-sync/internal/domain/profile"
	"store-sync/internal/ws"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

func Bootstrap(cfg config.Config) (*App, func() error, error) {
	c, err := NewContainer(cfg)
	if err != nil {
		return nil, nil, err
	}

	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})
	registerGlobalMiddleware(f, c)

	hub := ws.NewHub(c.Logger)
	go hub.Run()
	ws.SetDefaultHub(hub)

	// bridge service notifications onto the UI stream
	c.Sessions.ObserveSessionChanges(func(p *profile.UserProfile) {
		if p == nil {
			ws.NotifySessionChanged("")
			return
		}
		ws.NotifySessionChanged(p.ID)
	})
	c.Local.Subscribe(func(ev localstate.Event) {
		ws.NotifyStateChanged(string(ev))
	})

	deps := routes.Deps{
		DB:       c.DB,
		Cache:    c.Cache,
		Local:    c.Local,
		Provider: c.Provider,
		Sessions: c.Sessions,
		Hub:      hub,
		Logger:   c.Logger,
	}
	routes.NewRegistry(deps).Register(f, deps)

	f.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(c.PromReg, promhttp.HandlerOpts{})))

	app := &App{Fiber: f, Container: c}
	return app, c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	errMw := middleware.NewErrorMiddleware()
	app.Use(errMw.Middleware())

	accessLog := middleware.NewAccessLogMiddleware(c.Logger)
	app.Use(accessLog.Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
