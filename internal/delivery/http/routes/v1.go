package routes

import (
	v1 "store-sync/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
)

func RegisterV1(r fiber.Router, d Deps) {
	if r == nil {
		return
	}

	v1.Register(r, v1.Deps{
		Local:    d.Local,
		Provider: d.Provider,
		Sessions: d.Sessions,
	})
}
