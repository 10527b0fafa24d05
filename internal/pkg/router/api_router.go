package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/unical-app/unical/app/controllers"
	"github.com/unical-app/unical/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	auth := api.Group("/auth")
	auth.Post("/signup", controllers.HandleSignup)
	auth.Post("/login", controllers.HandleLogin)

	protected := api.Group("", middleware.JWTAuthMiddleware())

	calendars := protected.Group("/calendars")
	calendars.Get("/accounts", controllers.HandleListAccounts)
	calendars.Post("/accounts", controllers.HandleCreateCustomAccount)
	calendars.Post("/refresh/:accountId", controllers.HandleRefreshAccount)

	events := protected.Group("/events")
	events.Get("/", controllers.HandleListEvents)
	events.Post("/", controllers.HandleCreateEvent)
	events.Get("/:id", controllers.HandleGetEvent)
	events.Put("/:id", controllers.HandleUpdateEvent)
	events.Delete("/:id", controllers.HandleDeleteEvent)
	events.Post("/:id/respond", controllers.HandleRespondToEvent)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
