package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/devicecontext"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/ledger"
)

// HandleGetProfile returns the customer profile bound to the request's device
// key, creating it with the daily free credits on first contact.
func HandleGetProfile(c *fiber.Ctx) error {
	svc, err := getLedgerService(c)
	if err != nil {
		return err
	}

	profile, err := svc.GetProfile(devicecontext.GetDeviceKey(c))
	if err != nil {
		log.Printf("failed to load profile: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load profile"})
	}

	return c.JSON(profileResponse(profile))
}

type updateProfileRequest struct {
	Name          *string `json:"name"`
	Contact       *string `json:"contact"`
	Niche         *string `json:"niche"`
	PackageID     *string `json:"package_id"`
	SavedStrategy *string `json:"saved_strategy"`
}

// HandleUpdateProfile applies a shallow field merge to the profile. Absent
// fields are left untouched.
func HandleUpdateProfile(c *fiber.Ctx) error {
	svc, err := getLedgerService(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	profile, err := svc.UpdateProfile(devicecontext.GetDeviceKey(c), ledger.ProfileUpdate{
		Name:          req.Name,
		Contact:       req.Contact,
		Niche:         req.Niche,
		PackageID:     req.PackageID,
		SavedStrategy: req.SavedStrategy,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidUpdate) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
		}
		log.Printf("failed to update profile: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update profile"})
	}

	return c.JSON(profileResponse(profile))
}

// HandleListTransactions returns the capped credit history, newest first.
func HandleListTransactions(c *fiber.Ctx) error {
	svc, err := getLedgerService(c)
	if err != nil {
		return err
	}

	transactions, err := svc.ListTransactions(devicecontext.GetDeviceKey(c))
	if err != nil {
		log.Printf("failed to list transactions: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load transactions"})
	}

	items := make([]fiber.Map, 0, len(transactions))
	for i := range transactions {
		items = append(items, transactionResponse(&transactions[i]))
	}
	return c.JSON(fiber.Map{"transactions": items})
}

// HandleListAssets returns the capped gallery of generated assets, newest first.
func HandleListAssets(c *fiber.Ctx) error {
	svc, err := getLedgerService(c)
	if err != nil {
		return err
	}

	assets, err := svc.ListAssets(devicecontext.GetDeviceKey(c))
	if err != nil {
		log.Printf("failed to list assets: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load assets"})
	}

	items := make([]fiber.Map, 0, len(assets))
	for i := range assets {
		items = append(items, assetResponse(&assets[i]))
	}
	return c.JSON(fiber.Map{"assets": items})
}
