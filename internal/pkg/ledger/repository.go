package ledger

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/app/models"
)

// Repository provides the storage operations used by the ledger service.
// Every mutating call must be atomic: either the whole operation is
// persisted or nothing is.
type Repository interface {
	GetProfileByDeviceKey(deviceKey string) (*models.CustomerProfile, error)
	CreateProfile(p *models.CustomerProfile) error
	// UpdateProfile runs apply against the current profile row under a row
	// lock and persists the result. An error from apply aborts the write.
	UpdateProfile(profileID uint, apply func(p *models.CustomerProfile) error) (*models.CustomerProfile, error)

	// AddCredits increases the balance and inserts the transaction record,
	// evicting history rows beyond the cap.
	AddCredits(profileID uint, amount int64, txn *models.CreditTransaction) (*models.CustomerProfile, error)
	// DeductCredits subtracts the amount when the balance covers it.
	// Returns ok=false and an unchanged profile otherwise.
	DeductCredits(profileID uint, amount int64) (*models.CustomerProfile, bool, error)

	ListTransactions(profileID uint, limit int) ([]models.CreditTransaction, error)

	// AppendAsset inserts the asset, bumps the matching stat counter and
	// evicts rows beyond the cap.
	AppendAsset(asset *models.GeneratedAsset) (*models.CustomerProfile, error)
	ListAssets(profileID uint, limit int) ([]models.GeneratedAsset, error)
	TrimAssets(profileID uint) error

	// RedeemCode marks the code consumed and grants its credits in one
	// step. Returns ok=false (nothing persisted) when the profile already
	// redeemed the code.
	RedeemCode(rc *models.RedeemedCode, txn *models.CreditTransaction) (*models.CustomerProfile, bool, error)

	HasVerifiedSlip(profileID uint, digest string) (bool, error)
	// GrantSlip records the slip digest and grants its credits in one step.
	// Returns ok=false (nothing persisted) when the digest was already used.
	GrantSlip(slip *models.VerifiedSlip, txn *models.CreditTransaction) (*models.CustomerProfile, bool, error)
	ListVerifiedSlips(limit int) ([]models.VerifiedSlip, error)

	// ReserveCredits deducts the amount and creates the pending reservation
	// in one step. Returns ok=false when the balance does not cover it.
	ReserveCredits(res *models.CreditReservation) (bool, error)
	CommitReservation(profileID uint, publicID string) (*models.CreditReservation, error)
	// ReleaseReservation refunds the reserved amount to the profile.
	ReleaseReservation(profileID uint, publicID string) (*models.CreditReservation, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a ledger repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetProfileByDeviceKey(deviceKey string) (*models.CustomerProfile, error) {
	var p models.CustomerProfile
	err := r.db.Where("device_key = ?", deviceKey).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *gormRepository) CreateProfile(p *models.CustomerProfile) error {
	return r.db.Create(p).Error
}

func (r *gormRepository) UpdateProfile(profileID uint, apply func(p *models.CustomerProfile) error) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockProfile(tx, profileID, &profile); err != nil {
			return err
		}
		if err := apply(&profile); err != nil {
			return err
		}
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormRepository) AddCredits(profileID uint, amount int64, txn *models.CreditTransaction) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockProfile(tx, profileID, &profile); err != nil {
			return err
		}
		profile.Credits += amount
		if err := tx.Save(&profile).Error; err != nil {
			return err
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		return trimRows(tx, &models.CreditTransaction{}, profileID, models.MaxTransactionHistory)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormRepository) DeductCredits(profileID uint, amount int64) (*models.CustomerProfile, bool, error) {
	var profile models.CustomerProfile
	ok := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockProfile(tx, profileID, &profile); err != nil {
			return err
		}
		if profile.Credits < amount {
			return nil
		}
		profile.Credits -= amount
		ok = true
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &profile, ok, nil
}

func (r *gormRepository) ListTransactions(profileID uint, limit int) ([]models.CreditTransaction, error) {
	var txns []models.CreditTransaction
	err := r.db.Where("profile_id = ?", profileID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

func (r *gormRepository) AppendAsset(asset *models.GeneratedAsset) (*models.CustomerProfile, error) {
	var profile models.CustomerProfile
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockProfile(tx, asset.ProfileID, &profile); err != nil {
			return err
		}
		if err := tx.Create(asset).Error; err != nil {
			return err
		}
		switch asset.Type {
		case models.AssetTypeImage:
			profile.PhotosGenerated++
		case models.AssetTypeVideo:
			profile.VideosGenerated++
		}
		if err := tx.Save(&profile).Error; err != nil {
			return err
		}
		return trimRows(tx, &models.GeneratedAsset{}, asset.ProfileID, models.MaxGeneratedAssets)
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *gormRepository) ListAssets(profileID uint, limit int) ([]models.GeneratedAsset, error) {
	var assets []models.GeneratedAsset
	err := r.db.Where("profile_id = ?", profileID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&assets).Error
	return assets, err
}

func (r *gormRepository) TrimAssets(profileID uint) error {
	return trimRows(r.db, &models.GeneratedAsset{}, profileID, models.MaxGeneratedAssets)
}

func (r *gormRepository) RedeemCode(rc *models.RedeemedCode, txn *models.CreditTransaction) (*models.CustomerProfile, bool, error) {
	var profile models.CustomerProfile
	ok := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockProfile(tx, rc.ProfileID, &profile); err != nil {
			return err
		}
		// Re-check under the profile lock; concurrent redeems of the same
		// code serialize on it.
		var count int64
		if err := tx.Model(&models.RedeemedCode{}).
			Where("profile_id = ? AND code = ?", rc.ProfileID, rc.Code).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(rc).Error; err != nil {
			return err
		}
		profile.Credits += txn.CreditsAdded
		if err := tx.Save(&profile).Error; err != nil {
			return err
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		ok = true
		return trimRows(tx, &models.CreditTransaction{}, rc.ProfileID, models.MaxTransactionHistory)
	})
	if err != nil {
		return nil, false, err
	}
	return &profile, ok, nil
}

func (r *gormRepository) HasVerifiedSlip(profileID uint, digest string) (bool, error) {
	var count int64
	err := r.db.Model(&models.VerifiedSlip{}).
		Where("profile_id = ? AND digest = ?", profileID, digest).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) GrantSlip(slip *models.VerifiedSlip, txn *models.CreditTransaction) (*models.CustomerProfile, bool, error) {
	var profile models.CustomerProfile
	ok := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockProfile(tx, slip.ProfileID, &profile); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.VerifiedSlip{}).
			Where("profile_id = ? AND digest = ?", slip.ProfileID, slip.Digest).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(slip).Error; err != nil {
			return err
		}
		profile.Credits += txn.CreditsAdded
		if err := tx.Save(&profile).Error; err != nil {
			return err
		}
		if err := tx.Create(txn).Error; err != nil {
			return err
		}
		ok = true
		return trimRows(tx, &models.CreditTransaction{}, slip.ProfileID, models.MaxTransactionHistory)
	})
	if err != nil {
		return nil, false, err
	}
	return &profile, ok, nil
}

func (r *gormRepository) ListVerifiedSlips(limit int) ([]models.VerifiedSlip, error) {
	var slips []models.VerifiedSlip
	err := r.db.Order("created_at DESC, id DESC").Limit(limit).Find(&slips).Error
	return slips, err
}

func (r *gormRepository) ReserveCredits(res *models.CreditReservation) (bool, error) {
	ok := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var profile models.CustomerProfile
		if err := lockProfile(tx, res.ProfileID, &profile); err != nil {
			return err
		}
		if profile.Credits < res.Amount {
			return nil
		}
		profile.Credits -= res.Amount
		if err := tx.Save(&profile).Error; err != nil {
			return err
		}
		if err := tx.Create(res).Error; err != nil {
			return err
		}
		ok = true
		return nil
	})
	return ok, err
}

func (r *gormRepository) CommitReservation(profileID uint, publicID string) (*models.CreditReservation, error) {
	var res models.CreditReservation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockReservation(tx, profileID, publicID, &res); err != nil {
			return err
		}
		if !res.IsPending() {
			return ErrReservationSettled
		}
		res.Status = models.ReservationStatusCommitted
		return tx.Save(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *gormRepository) ReleaseReservation(profileID uint, publicID string) (*models.CreditReservation, error) {
	var res models.CreditReservation
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := lockReservation(tx, profileID, publicID, &res); err != nil {
			return err
		}
		if !res.IsPending() {
			return ErrReservationSettled
		}
		var profile models.CustomerProfile
		if err := lockProfile(tx, profileID, &profile); err != nil {
			return err
		}
		res.Status = models.ReservationStatusReleased
		if err := tx.Save(&res).Error; err != nil {
			return err
		}
		profile.Credits += res.Amount
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func lockProfile(tx *gorm.DB, profileID uint, dest *models.CustomerProfile) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dest, profileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProfileNotFound
	}
	return err
}

func lockReservation(tx *gorm.DB, profileID uint, publicID string, dest *models.CreditReservation) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("profile_id = ? AND public_id = ?", profileID, publicID).
		First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReservationNotFound
	}
	return err
}

// trimRows deletes per-profile history rows beyond the newest keep entries.
func trimRows(tx *gorm.DB, model interface{}, profileID uint, keep int) error {
	var ids []uint
	if err := tx.Model(model).
		Where("profile_id = ?", profileID).
		Order("created_at DESC, id DESC").
		Limit(1000).
		Offset(keep).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return tx.Delete(model, ids).Error
}
