package main

import (
	"fmt"
	"log"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/cache"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/database"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/env"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/metrics/counter"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/router"
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

	go counter.RunPeriodicFlush(counter.FlushInterval)

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // slip uploads plus JSON headroom
	})
	app.Use(recover.New(), logger.New())
	app.Get("/metrics", monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
