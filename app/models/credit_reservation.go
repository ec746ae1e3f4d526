package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReservationStatusPending   = "pending"
	ReservationStatusCommitted = "committed"
	ReservationStatusReleased  = "released"
)

// CreditReservation holds credits aside while a generation attempt is in
// flight. Reserving deducts the amount; committing finalizes the spend;
// releasing refunds it. A reservation leaves the pending state exactly once.
type CreditReservation struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PublicID  string    `gorm:"type:varchar(40);uniqueIndex" json:"id"`
	ProfileID uint      `gorm:"not null;index" json:"-"`
	Amount    int64     `gorm:"not null" json:"amount"`
	Purpose   string    `gorm:"type:varchar(100);default:''" json:"purpose"`
	Status    string    `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// NewCreditReservation builds a pending reservation for a profile.
func NewCreditReservation(profileID uint, amount int64, purpose string) *CreditReservation {
	return &CreditReservation{
		PublicID:  "RSV-" + uuid.NewString(),
		ProfileID: profileID,
		Amount:    amount,
		Purpose:   purpose,
		Status:    ReservationStatusPending,
	}
}

// IsPending reports whether the reservation can still be committed or released.
func (r *CreditReservation) IsPending() bool {
	return r.Status == ReservationStatusPending
}
