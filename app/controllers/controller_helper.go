package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/app/models"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/generation"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/ledger"
)

var (
	ledgerService    *ledger.Service
	generationClient *generation.Client
)

// InitializeAPI wires the shared service dependencies for all API handlers.
// Tests inject a memory-backed ledger service here.
func InitializeAPI(svc *ledger.Service, gen *generation.Client) {
	ledgerService = svc
	generationClient = gen
}

func getLedgerService(c *fiber.Ctx) (*ledger.Service, error) {
	if ledgerService == nil {
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Ledger unavailable"})
	}
	return ledgerService, nil
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func profileResponse(p *models.CustomerProfile) fiber.Map {
	return fiber.Map{
		"id":                 p.PublicID,
		"name":               p.Name,
		"contact":            p.Contact,
		"niche":              p.Niche,
		"package_id":         p.PackageID,
		"credits":            p.Credits,
		"total_spent":        p.TotalSpent,
		"photos_generated":   p.PhotosGenerated,
		"videos_generated":   p.VideosGenerated,
		"mentoring_sessions": p.MentoringSessions,
		"saved_strategy":     p.SavedStrategy,
		"created_at":         p.CreatedAt.UTC().Format(time.RFC3339),
		"last_visit_at":      formatTimePtr(p.LastVisitAt),
	}
}

func transactionResponse(tx *models.CreditTransaction) fiber.Map {
	return fiber.Map{
		"id":            tx.PublicID,
		"package_name":  tx.PackageName,
		"credits_added": tx.CreditsAdded,
		"type":          tx.Type,
		"created_at":    tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func assetResponse(a *models.GeneratedAsset) fiber.Map {
	return fiber.Map{
		"id":          a.PublicID,
		"url":         a.URL,
		"type":        a.Type,
		"headline":    a.Headline,
		"subheadline": a.Subheadline,
		"vibe":        a.Vibe,
		"created_at":  a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
