// Package pricing maps studio operations to their credit cost.
package pricing

// Credit costs per processing operation.
const (
	CostStrategy    int64 = 0
	CostMagicScan   int64 = 2
	CostRender1K    int64 = 1
	CostRender2K    int64 = 3
	CostRender4K    int64 = 5
	CostAIEdit      int64 = 2
	CostVideoMotion int64 = 10
)

// Operation identifiers accepted by the studio endpoints.
const (
	OpStrategy    = "strategy"
	OpMagicScan   = "magic_scan"
	OpRender1K    = "render_1k"
	OpRender2K    = "render_2k"
	OpRender4K    = "render_4k"
	OpAIEdit      = "ai_edit"
	OpVideoMotion = "video_motion"
)

// Cost resolves an operation identifier to its credit cost.
func Cost(op string) (int64, bool) {
	switch op {
	case OpStrategy:
		return CostStrategy, true
	case OpMagicScan:
		return CostMagicScan, true
	case OpRender1K:
		return CostRender1K, true
	case OpRender2K:
		return CostRender2K, true
	case OpRender4K:
		return CostRender4K, true
	case OpAIEdit:
		return CostAIEdit, true
	case OpVideoMotion:
		return CostVideoMotion, true
	default:
		return 0, false
	}
}

// All returns the full operation → cost table for the pricing endpoint.
func All() map[string]int64 {
	return map[string]int64{
		OpStrategy:    CostStrategy,
		OpMagicScan:   CostMagicScan,
		OpRender1K:    CostRender1K,
		OpRender2K:    CostRender2K,
		OpRender4K:    CostRender4K,
		OpAIEdit:      CostAIEdit,
		OpVideoMotion: CostVideoMotion,
	}
}

// IsVideo reports whether the operation produces a video artifact.
func IsVideo(op string) bool {
	return op == OpVideoMotion
}
