package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/unical-app/unical/app/controllers"
	"github.com/unical-app/unical/app/repository"
	"github.com/unical-app/unical/internal/pkg/cache"
	"github.com/unical-app/unical/internal/pkg/calendarsync"
	"github.com/unical-app/unical/internal/pkg/database"
	"github.com/unical-app/unical/internal/pkg/env"
	"github.com/unical-app/unical/internal/pkg/router"
	"github.com/unical-app/unical/internal/pkg/scheduler"
	"github.com/unical-app/unical/internal/pkg/security"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())
	repos := repository.GetGlobalRepositories()

	key, err := security.EncryptionKey()
	if err != nil {
		log.Fatal(err)
	}

	registry := calendarsync.NewRegistry()
	creds := calendarsync.NewCredentialStore(repos.Account, registry, key)
	reconciler := calendarsync.NewReconciler(repos.Event)
	syncer := calendarsync.NewSyncer(repos.Account, registry, creds, reconciler, cache.NewLock(), scheduler.CounterRecorder{})
	gateway := calendarsync.NewGateway(repos.Event, repos.Account, registry, creds)

	controllers.InitializeCalendarController(syncer, creds)
	controllers.InitializeEventController(gateway)

	scheduler.NewManager(syncer, repos.Account).Start()

	app := fiber.New(fiber.Config{
		AppName: "UniCal",
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app
}
