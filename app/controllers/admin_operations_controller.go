package controllers

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/app/models"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/database"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/metrics/counter"
)

// HandleAdminListOperations returns cumulative studio run counts per
// operation. Pending Redis counters are drained first so the numbers are
// current.
func HandleAdminListOperations(c *fiber.Ctx) error {
	if err := counter.FlushAll(); err != nil {
		log.Printf("operation counter flush failed: %v", err)
	}

	var stats []models.OperationStat
	if err := database.GetDB().Order("total_runs DESC, operation ASC").Find(&stats).Error; err != nil {
		log.Printf("failed to list operation stats: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load operation stats"})
	}

	items := make([]fiber.Map, 0, len(stats))
	for _, stat := range stats {
		items = append(items, fiber.Map{
			"operation":  stat.Operation,
			"total_runs": stat.TotalRuns,
			"updated_at": stat.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{"operations": items})
}
