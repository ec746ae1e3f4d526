package models

import (
	"crypto/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	TIER_FREE     = "free"
	TIER_STARTER  = "starter"
	TIER_BUSINESS = "business"
	TIER_AGENCY   = "agency"
)

// ProfileSchemaVersion is bumped whenever the persisted profile shape
// changes; loaders upgrade older rows on read.
const ProfileSchemaVersion = 2

type CustomerProfile struct {
	ID                uint           `gorm:"primaryKey" json:"-"`
	PublicID          string         `gorm:"type:varchar(20);uniqueIndex" json:"id" validate:"required"`
	DeviceKey         string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"-" validate:"required"`
	Name              string         `gorm:"type:varchar(150);default:''" json:"name" validate:"max=150"`
	Contact           string         `gorm:"type:varchar(200);default:''" json:"contact" validate:"max=200"`
	Niche             string         `gorm:"type:varchar(150);default:''" json:"niche" validate:"max=150"`
	PackageID         string         `gorm:"type:varchar(20);default:'free'" json:"package_id" validate:"oneof=free starter business agency"`
	Credits           int64          `gorm:"not null;default:0" json:"credits" validate:"gte=0"`
	TotalSpent        int64          `gorm:"not null;default:0" json:"total_spent" validate:"gte=0"`
	PhotosGenerated   int64          `gorm:"not null;default:0" json:"photos_generated"`
	VideosGenerated   int64          `gorm:"not null;default:0" json:"videos_generated"`
	MentoringSessions int64          `gorm:"not null;default:0" json:"mentoring_sessions"`
	SavedStrategy     string         `gorm:"type:text" json:"saved_strategy,omitempty"`
	LastFreeRefillOn  string         `gorm:"type:varchar(10);default:''" json:"last_free_refill_on"`
	LastVisitAt       *time.Time     `gorm:"type:timestamp;default:null" json:"last_visit_at"`
	SchemaVersion     int            `gorm:"not null;default:1" json:"-"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *CustomerProfile) Validate() error {
	v := validator.New()

	return v.Struct(p)
}

// NewCustomerProfile creates a fresh profile for a device with the daily
// free credit grant already applied.
func NewCustomerProfile(deviceKey string, freeCredits int64, refillDate string) (*CustomerProfile, error) {
	publicID, err := GenerateProfileID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p := &CustomerProfile{
		PublicID:         publicID,
		DeviceKey:        deviceKey,
		Name:             "Magic Director",
		Niche:            "Professional Creator",
		PackageID:        TIER_FREE,
		Credits:          freeCredits,
		LastFreeRefillOn: refillDate,
		LastVisitAt:      &now,
		SchemaVersion:    ProfileSchemaVersion,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

const profileIDAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateProfileID creates a customer-facing identifier like "AM-7KQ2XD".
func GenerateProfileID() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = profileIDAlphabet[int(b[i])%len(profileIDAlphabet)]
	}
	return "AM-" + string(b), nil
}

// IsValidTier reports whether the given package id is a known sale tier.
func IsValidTier(tier string) bool {
	switch tier {
	case TIER_FREE, TIER_STARTER, TIER_BUSINESS, TIER_AGENCY:
		return true
	default:
		return false
	}
}
