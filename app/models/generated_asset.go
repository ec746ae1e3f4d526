package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	AssetTypeImage = "image"
	AssetTypeVideo = "video"
	AssetTypeAudio = "audio"
)

// MaxGeneratedAssets caps the per-profile asset gallery; the oldest entries
// are evicted when a new one is inserted.
const MaxGeneratedAssets = 20

// GeneratedAsset is an immutable pointer to an artifact produced by the
// generation service together with a denormalized copy of its brief.
// The artifact itself is owned by the generation service, not by us.
type GeneratedAsset struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	PublicID    string    `gorm:"type:varchar(40);uniqueIndex" json:"id"`
	ProfileID   uint      `gorm:"not null;index:idx_generated_assets_profile_created,priority:1" json:"-"`
	URL         string    `gorm:"type:text;not null" json:"url"`
	Type        string    `gorm:"type:varchar(16);not null" json:"type"`
	Headline    string    `gorm:"type:varchar(255);default:''" json:"headline"`
	Subheadline string    `gorm:"type:varchar(255);default:''" json:"subheadline"`
	Vibe        string    `gorm:"type:varchar(100);default:''" json:"vibe"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_generated_assets_profile_created,priority:2" json:"timestamp"`
}

// NewGeneratedAsset assigns the public id for a freshly recorded asset.
func NewGeneratedAsset(profileID uint, url, assetType, headline, subheadline, vibe string) *GeneratedAsset {
	return &GeneratedAsset{
		PublicID:    "ASSET-" + uuid.NewString(),
		ProfileID:   profileID,
		URL:         url,
		Type:        assetType,
		Headline:    headline,
		Subheadline: subheadline,
		Vibe:        vibe,
	}
}

// IsValidAssetType reports whether the type is one of the known kinds.
func IsValidAssetType(t string) bool {
	switch t {
	case AssetTypeImage, AssetTypeVideo, AssetTypeAudio:
		return true
	default:
		return false
	}
}
