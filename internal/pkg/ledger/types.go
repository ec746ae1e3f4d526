package ledger

import "errors"

// DailyFreeCredits is the floor every profile is topped up to once per
// calendar day.
const DailyFreeCredits int64 = 5

// Sentinel errors returned by Repository implementations.
var (
	ErrProfileNotFound     = errors.New("ledger: profile not found")
	ErrReservationNotFound = errors.New("ledger: reservation not found")
	ErrReservationSettled  = errors.New("ledger: reservation already settled")
	ErrInvalidUpdate       = errors.New("ledger: invalid profile update")
)

// RedeemResult is the outcome of a promo-code redemption attempt.
type RedeemResult struct {
	Success bool   `json:"success"`
	Amount  int64  `json:"amount"`
	Message string `json:"message"`
}

// SlipResult is the outcome of a payment-slip verification attempt.
type SlipResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ProfileUpdate carries a shallow field merge for a profile. Nil fields are
// left untouched.
type ProfileUpdate struct {
	Name          *string
	Contact       *string
	Niche         *string
	PackageID     *string
	SavedStrategy *string
}

// NewAsset describes a generated artifact to be recorded against a profile.
// The id and timestamp are assigned by the ledger.
type NewAsset struct {
	URL         string
	Type        string
	Headline    string
	Subheadline string
	Vibe        string
}
