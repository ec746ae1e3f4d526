package devicecontext

// Shared Locals keys used across controllers and middlewares
const (
	ContextKey = "DEVICE_CONTEXT"
	HeaderName = "X-Device-Key"
)
