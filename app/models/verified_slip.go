package models

import "time"

// VerifiedSlip marks a payment proof as consumed. The digest is a sha256
// hex of the uploaded slip bytes; a given digest grants credits at most
// once per profile.
type VerifiedSlip struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	ProfileID    uint      `gorm:"not null;index:ux_verified_slips_profile_digest,unique,priority:1" json:"-"`
	Digest       string    `gorm:"type:varchar(64);not null;index:ux_verified_slips_profile_digest,unique,priority:2" json:"digest"`
	CreditsAdded int64     `gorm:"not null" json:"credits_added"`
	PackageName  string    `gorm:"type:varchar(150);default:''" json:"package_name"`
	ArchiveKey   string    `gorm:"type:varchar(255);default:''" json:"archive_key,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
