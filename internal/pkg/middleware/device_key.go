package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/devicecontext"
)

// maximum accepted device key length; anything longer is treated as garbage
const maxDeviceKeyLength = 128

// DeviceContextMiddleware resolves the device identity for every request.
// Clients send their key in the X-Device-Key header; a request without one
// gets a fresh key minted and echoed back so the client can persist it.
func DeviceContextMiddleware(c *fiber.Ctx) error {
	deviceKey := strings.TrimSpace(c.Get(devicecontext.HeaderName))
	minted := false

	if deviceKey == "" || len(deviceKey) > maxDeviceKeyLength {
		deviceKey = uuid.New().String()
		minted = true
	}

	c.Locals(devicecontext.ContextKey, devicecontext.DeviceContext{
		DeviceKey: deviceKey,
		Minted:    minted,
	})

	// Echo the key on every response so first-time clients learn theirs
	c.Set(devicecontext.HeaderName, deviceKey)

	return c.Next()
}
