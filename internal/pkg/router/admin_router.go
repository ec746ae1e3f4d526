package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/app/controllers"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/env"
)

type AdminRouter struct {
}

func (h AdminRouter) InstallRouter(app *fiber.App) {
	adminGroup := app.Group("/admin", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("ADMIN_USER", "admin"): env.GetEnv("ADMIN_PASSWORD", "admin"),
		},
	}))

	// Slip review queue
	adminGroup.Get("/slips", controllers.HandleAdminListSlips)

	// Studio run counts per operation
	adminGroup.Get("/operations", controllers.HandleAdminListOperations)
}

func NewAdminRouter() *AdminRouter {
	return &AdminRouter{}
}
