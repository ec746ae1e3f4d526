package devicecontext

import "github.com/gofiber/fiber/v2"

// DeviceContext represents the device identity of a request
type DeviceContext struct {
	DeviceKey string `json:"device_key"`
	Minted    bool   `json:"minted"` // true when the key was issued on this request
}

// GetDeviceContext retrieves the device context from fiber context.
// Returns an empty context if none is set.
func GetDeviceContext(c *fiber.Ctx) DeviceContext {
	if ctx := c.Locals(ContextKey); ctx != nil {
		return ctx.(DeviceContext)
	}
	return DeviceContext{}
}

// GetDeviceKey returns the current request's device key, or empty string
func GetDeviceKey(c *fiber.Ctx) string {
	return GetDeviceContext(c).DeviceKey
}
