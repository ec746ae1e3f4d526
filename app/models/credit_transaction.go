package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TransactionTypeRedeem = "redeem"
	TransactionTypeSlip   = "slip"
)

// MaxTransactionHistory caps the per-profile transaction log; older rows
// are evicted when a new one is inserted.
const MaxTransactionHistory = 50

// CreditTransaction is an immutable record of a credit grant.
type CreditTransaction struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	PublicID     string    `gorm:"type:varchar(40);uniqueIndex" json:"id"`
	ProfileID    uint      `gorm:"not null;index:idx_credit_transactions_profile_created,priority:1" json:"-"`
	PackageName  string    `gorm:"type:varchar(150);default:''" json:"package_name"`
	CreditsAdded int64     `gorm:"not null" json:"credits_added"`
	Type         string    `gorm:"type:varchar(16);not null" json:"type"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_credit_transactions_profile_created,priority:2" json:"date"`
}

// NewCreditTransaction builds a transaction record for a credit grant.
func NewCreditTransaction(profileID uint, amount int64, txType, packageName string) *CreditTransaction {
	return &CreditTransaction{
		PublicID:     "TX-" + uuid.NewString(),
		ProfileID:    profileID,
		PackageName:  packageName,
		CreditsAdded: amount,
		Type:         txType,
	}
}

// IsValidTransactionType reports whether the type is one of the known kinds.
func IsValidTransactionType(t string) bool {
	return t == TransactionTypeRedeem || t == TransactionTypeSlip
}
