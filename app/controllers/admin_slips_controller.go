package controllers

import (
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

const defaultSlipReviewLimit = 100

// HandleAdminListSlips returns the most recent accepted payment slips for
// manual review. Sits behind basic auth on the admin router.
func HandleAdminListSlips(c *fiber.Ctx) error {
	svc, err := getLedgerService(c)
	if err != nil {
		return err
	}

	limit := defaultSlipReviewLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 1000 {
			limit = parsed
		}
	}

	slips, err := svc.ListVerifiedSlips(limit)
	if err != nil {
		log.Printf("failed to list verified slips: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load slips"})
	}

	items := make([]fiber.Map, 0, len(slips))
	for _, slip := range slips {
		items = append(items, fiber.Map{
			"digest":        slip.Digest,
			"credits_added": slip.CreditsAdded,
			"package_name":  slip.PackageName,
			"archive_key":   slip.ArchiveKey,
			"created_at":    slip.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{"slips": items})
}
