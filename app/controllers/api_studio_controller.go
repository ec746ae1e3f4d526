package controllers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/app/models"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/devicecontext"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/generation"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/ledger"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/messages"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/metrics/counter"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/pricing"
)

type renderImageInput struct {
	DataBase64 string `json:"data_base64"`
	MimeType   string `json:"mime_type"`
}

type renderRequest struct {
	Operation   string             `json:"operation"`
	Prompt      string             `json:"prompt"`
	AspectRatio string             `json:"aspect_ratio"`
	Headline    string             `json:"headline"`
	Subheadline string             `json:"subheadline"`
	Vibe        string             `json:"vibe"`
	Images      []renderImageInput `json:"images"`
}

// HandleStudioRender runs one paid generation attempt. Credits for the
// operation are reserved up front, committed on success and released when
// the generation service fails, so a failed attempt costs nothing.
func HandleStudioRender(c *fiber.Ctx) error {
	svc, err := getLedgerService(c)
	if err != nil {
		return err
	}
	if generationClient == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "service_unavailable", "message": messages.GenerationFailed()})
	}

	var req renderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	op := strings.ToLower(strings.TrimSpace(req.Operation))
	cost, ok := pricing.Cost(op)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown operation"})
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Prompt is required"})
	}

	deviceKey := devicecontext.GetDeviceKey(c)
	reservation, ok, err := svc.ReserveCredits(deviceKey, cost, op)
	if err != nil {
		log.Printf("failed to reserve credits: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to reserve credits"})
	}
	if !ok {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{"error": "insufficient_credits", "message": messages.InsufficientCredits()})
	}

	images := make([]generation.ImageInput, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, generation.ImageInput{
			DataBase64: img.DataBase64,
			MimeType:   img.MimeType,
		})
	}

	artifact, err := generationClient.Generate(c.Context(), generation.Request{
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Images:      images,
	})
	if err != nil {
		log.Printf("generation failed for operation %s: %v", op, err)
		if relErr := svc.ReleaseReservation(deviceKey, reservation.PublicID); relErr != nil {
			log.Printf("failed to release reservation %s: %v", reservation.PublicID, relErr)
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "generation_failed", "message": messages.GenerationFailed()})
	}

	assetType := models.AssetTypeImage
	if pricing.IsVideo(op) {
		assetType = models.AssetTypeVideo
	}

	profile, err := svc.RecordGeneratedAsset(deviceKey, ledger.NewAsset{
		URL:         artifact.URL,
		Type:        assetType,
		Headline:    req.Headline,
		Subheadline: req.Subheadline,
		Vibe:        req.Vibe,
	})
	if err != nil {
		log.Printf("failed to record asset: %v", err)
		if relErr := svc.ReleaseReservation(deviceKey, reservation.PublicID); relErr != nil {
			log.Printf("failed to release reservation %s: %v", reservation.PublicID, relErr)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record asset"})
	}

	if err := svc.CommitReservation(deviceKey, reservation.PublicID); err != nil {
		log.Printf("failed to commit reservation %s: %v", reservation.PublicID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to settle credits"})
	}

	// usage metering is best effort
	if err := counter.AddOperationRun(op); err != nil {
		log.Printf("failed to count operation run %s: %v", op, err)
	}

	assets, err := svc.ListAssets(deviceKey)
	if err != nil {
		log.Printf("failed to list assets after render: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load assets"})
	}

	var asset fiber.Map
	if len(assets) > 0 {
		asset = assetResponse(&assets[0])
	}

	return c.JSON(fiber.Map{
		"asset":   asset,
		"text":    artifact.Text,
		"cost":    cost,
		"credits": profile.Credits,
	})
}
