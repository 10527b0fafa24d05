package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/unical-app/unical/app/controllers"
	"github.com/unical-app/unical/internal/pkg/oauth"
	"github.com/unical-app/unical/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// OAuth handshake lives outside /api: the browser follows these
	// redirects directly, carrying the session cookie, not a bearer token.
	app.Get("/auth/:provider", controllers.HandleCalendarConnect)
	app.Get("/auth/:provider/callback", controllers.HandleCalendarCallback)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
