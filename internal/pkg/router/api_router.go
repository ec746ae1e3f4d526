package router

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/app/controllers"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/database"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/env"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/generation"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/ledger"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/middleware"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/sliparchive"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Device identity applies to every route
	app.Use(middleware.DeviceContextMiddleware)

	controllers.InitializeAPI(buildLedgerService(), generation.NewFromEnv())

	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// API v1 routes
	v1 := api.Group("/v1")
	v1.Get("/ping", controllers.HandlePing)
	v1.Get("/packages", controllers.HandleListPackages)
	v1.Get("/pricing", controllers.HandleGetPricing)
	v1.Get("/stats", controllers.HandleGetStats)

	v1.Get("/profile", controllers.HandleGetProfile)
	v1.Patch("/profile", controllers.HandleUpdateProfile)
	v1.Get("/profile/transactions", controllers.HandleListTransactions)
	v1.Get("/profile/assets", controllers.HandleListAssets)

	v1.Post("/credits/redeem", controllers.HandleRedeemCode)
	v1.Post("/credits/slip", controllers.HandleVerifySlip)

	v1.Post("/studio/render", controllers.HandleStudioRender)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

// buildLedgerService assembles the ledger from environment configuration:
// business timezone, database-backed storage and the optional slip archive.
func buildLedgerService() *ledger.Service {
	opts := []ledger.Option{}

	tz := env.GetEnv("APP_TIMEZONE", "Asia/Bangkok")
	if loc, err := time.LoadLocation(tz); err != nil {
		log.Printf("invalid APP_TIMEZONE %q, falling back to UTC: %v", tz, err)
	} else {
		opts = append(opts, ledger.WithLocation(loc))
	}

	archiveCfg, err := sliparchive.LoadConfig()
	if err != nil {
		log.Printf("slip archive configuration invalid, continuing without archive: %v", err)
	} else if archiveCfg.IsEnabled() {
		archiver, err := sliparchive.NewClient(archiveCfg)
		if err != nil {
			log.Printf("slip archive unavailable, continuing without archive: %v", err)
		} else {
			opts = append(opts, ledger.WithSlipArchiver(archiver))
		}
	}

	return ledger.NewServiceFromDB(database.GetDB(), opts...)
}
