package controllers

import (
	"io"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/catalog"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/devicecontext"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/messages"
)

// largest slip upload we accept, matches typical phone camera output
const maxSlipBytes = 10 * 1024 * 1024

type redeemRequest struct {
	Code string `json:"code"`
}

// HandleRedeemCode exchanges a promotion code for credits. The outcome is
// always a 200 with a success flag and a localized message; only transport
// and storage problems surface as errors.
func HandleRedeemCode(c *fiber.Ctx) error {
	svc, err := getLedgerService(c)
	if err != nil {
		return err
	}

	var req redeemRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	deviceKey := devicecontext.GetDeviceKey(c)
	result, err := svc.RedeemCode(deviceKey, req.Code)
	if err != nil {
		log.Printf("failed to redeem code: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to redeem code"})
	}

	profile, err := svc.GetProfile(deviceKey)
	if err != nil {
		log.Printf("failed to reload profile after redeem: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load profile"})
	}

	return c.JSON(fiber.Map{
		"success": result.Success,
		"amount":  result.Amount,
		"message": result.Message,
		"credits": profile.Credits,
	})
}

// HandleVerifySlip accepts a payment slip upload for a service package and
// grants the package credits once per unique slip.
func HandleVerifySlip(c *fiber.Ctx) error {
	svc, err := getLedgerService(c)
	if err != nil {
		return err
	}

	packageID := strings.TrimSpace(c.FormValue("package_id"))
	pkg, ok := catalog.ByID(packageID)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown package id"})
	}

	fileHeader, err := c.FormFile("slip")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": messages.SlipMissing()})
	}
	if fileHeader.Size == 0 || fileHeader.Size > maxSlipBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": messages.SlipMissing()})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": messages.SlipMissing()})
	}
	defer file.Close()

	slip, err := io.ReadAll(io.LimitReader(file, maxSlipBytes+1))
	if err != nil || len(slip) == 0 || len(slip) > maxSlipBytes {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": messages.SlipMissing()})
	}

	deviceKey := devicecontext.GetDeviceKey(c)
	result, err := svc.VerifySlipAndAddCredits(deviceKey, slip, pkg.Credits, pkg.Title)
	if err != nil {
		log.Printf("failed to verify slip: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to verify slip"})
	}

	profile, err := svc.GetProfile(deviceKey)
	if err != nil {
		log.Printf("failed to reload profile after slip: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load profile"})
	}

	return c.JSON(fiber.Map{
		"success": result.Success,
		"message": result.Message,
		"credits": profile.Credits,
	})
}
