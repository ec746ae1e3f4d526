package models

import "time"

// RedeemedCode records a promo code consumed by a profile. A code grants
// credits at most once per profile; the transaction log cannot serve as the
// reuse guard because it is capped.
type RedeemedCode struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	ProfileID    uint      `gorm:"not null;index:ux_redeemed_codes_profile_code,unique,priority:1" json:"-"`
	Code         string    `gorm:"type:varchar(64);not null;index:ux_redeemed_codes_profile_code,unique,priority:2" json:"code"`
	CreditsAdded int64     `gorm:"not null" json:"credits_added"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
