package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/catalog"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/pricing"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/statistics"
)

// HandleListPackages returns the purchasable service packages.
func HandleListPackages(c *fiber.Ctx) error {
	packages := catalog.All()
	items := make([]fiber.Map, 0, len(packages))
	for _, pkg := range packages {
		items = append(items, fiber.Map{
			"id":          pkg.ID,
			"title":       pkg.Title,
			"price":       pkg.Price,
			"credits":     pkg.Credits,
			"description": pkg.Description,
			"recommended": pkg.Recommended,
		})
	}
	return c.JSON(fiber.Map{"packages": items})
}

// HandleGetPricing returns the credit cost of every studio operation.
func HandleGetPricing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"pricing": pricing.All()})
}

// HandleGetStats returns cached platform statistics.
func HandleGetStats(c *fiber.Ctx) error {
	stats := statistics.GetStatisticsData()
	return c.JSON(fiber.Map{
		"total_profiles": stats.TotalProfiles,
		"total_assets":   stats.TotalAssets,
		"today_assets":   stats.TodayAssets,
		"credits_issued": stats.CreditsIssued,
	})
}

// HandlePing is the health check endpoint.
func HandlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
