package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/app/models"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/messages"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/promo"
)

// SlipArchiver stores a copy of an accepted payment slip for the manual
// review queue. Archiving is best effort and must never block a grant.
type SlipArchiver interface {
	Archive(profilePublicID, digest string, slip []byte) (string, error)
}

// Service is the single source of truth for a device's credit balance and
// activity history, and the sole arbiter of whether a paid action may
// proceed.
type Service struct {
	repo     Repository
	archiver SlipArchiver
	loc      *time.Location
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Used by tests to simulate the
// calendar advancing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone whose calendar dates drive the daily free
// refill.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithSlipArchiver attaches a slip archive for accepted payment proofs.
func WithSlipArchiver(a SlipArchiver) Option {
	return func(s *Service) { s.archiver = a }
}

// NewService creates a ledger service from an injected repository.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo: repo,
		loc:  time.Local,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewServiceFromDB creates a ledger service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, opts ...Option) *Service {
	return NewService(NewRepository(db), opts...)
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

// GetProfile loads the profile for a device key, creating it on first
// contact with the daily free grant. Once per calendar day the balance is
// raised to the free amount if it fell below it; the refill date advances
// either way. Within the same day the call is read-only.
func (s *Service) GetProfile(deviceKey string) (*models.CustomerProfile, error) {
	key := strings.TrimSpace(deviceKey)
	if key == "" {
		return nil, errors.New("device key is required")
	}

	today := s.today()
	p, err := s.repo.GetProfileByDeviceKey(key)
	if errors.Is(err, ErrProfileNotFound) {
		p, err = models.NewCustomerProfile(key, DailyFreeCredits, today)
		if err != nil {
			return nil, err
		}
		if err := s.repo.CreateProfile(p); err != nil {
			return nil, err
		}
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	if p.SchemaVersion >= models.ProfileSchemaVersion && p.LastFreeRefillOn == today {
		return p, nil
	}

	// Re-apply against the locked row so a concurrent grant or spend
	// between our read and this write is not clobbered.
	return s.repo.UpdateProfile(p.ID, func(p *models.CustomerProfile) error {
		upgradeProfile(p)
		if p.LastFreeRefillOn != today {
			if p.Credits < DailyFreeCredits {
				p.Credits = DailyFreeCredits
			}
			p.LastFreeRefillOn = today
		}
		return nil
	})
}

// upgradeProfile applies in-place schema upgrades to rows written by older
// releases.
func upgradeProfile(p *models.CustomerProfile) {
	if p.SchemaVersion >= models.ProfileSchemaVersion {
		return
	}
	if p.PackageID == "" || !models.IsValidTier(p.PackageID) {
		p.PackageID = models.TIER_FREE
	}
	p.SchemaVersion = models.ProfileSchemaVersion
}

// UpdateProfile merges the given fields into the profile. Nil fields stay
// untouched; the asset cap is re-enforced as a post-condition.
func (s *Service) UpdateProfile(deviceKey string, upd ProfileUpdate) (*models.CustomerProfile, error) {
	existing, err := s.GetProfile(deviceKey)
	if err != nil {
		return nil, err
	}

	// Merge under the row lock so concurrent balance changes survive.
	p, err := s.repo.UpdateProfile(existing.ID, func(p *models.CustomerProfile) error {
		if upd.Name != nil {
			p.Name = strings.TrimSpace(*upd.Name)
		}
		if upd.Contact != nil {
			p.Contact = strings.TrimSpace(*upd.Contact)
		}
		if upd.Niche != nil {
			p.Niche = strings.TrimSpace(*upd.Niche)
		}
		if upd.PackageID != nil {
			tier := strings.ToLower(strings.TrimSpace(*upd.PackageID))
			if !models.IsValidTier(tier) {
				return fmt.Errorf("%w: unknown package id %q", ErrInvalidUpdate, tier)
			}
			p.PackageID = tier
		}
		if upd.SavedStrategy != nil {
			p.SavedStrategy = *upd.SavedStrategy
		}

		now := s.now()
		p.LastVisitAt = &now

		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.TrimAssets(p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// AddCredits is the sole path by which credits increase. It records a
// transaction alongside the balance change.
func (s *Service) AddCredits(deviceKey string, amount int64, kind, label string) (*models.CustomerProfile, error) {
	if amount < 0 {
		return nil, errors.New("credit amount must not be negative")
	}
	if !models.IsValidTransactionType(kind) {
		return nil, errors.New("unknown transaction type: " + kind)
	}
	p, err := s.GetProfile(deviceKey)
	if err != nil {
		return nil, err
	}
	txn := models.NewCreditTransaction(p.ID, amount, kind, label)
	return s.repo.AddCredits(p.ID, amount, txn)
}

// RedeemCode redeems a promotion code against the closed catalog. A code
// grants at most once per profile.
func (s *Service) RedeemCode(deviceKey, code string) (RedeemResult, error) {
	p, err := s.GetProfile(deviceKey)
	if err != nil {
		return RedeemResult{}, err
	}

	clean := promo.Normalize(code)
	amount, ok := promo.Lookup(clean)
	if !ok {
		return RedeemResult{Message: messages.RedeemInvalidCode()}, nil
	}

	// Consuming the code and granting its credits is a single storage
	// transaction: a failure leaves the code redeemable.
	rc := &models.RedeemedCode{
		ProfileID:    p.ID,
		Code:         clean,
		CreditsAdded: amount,
	}
	txn := models.NewCreditTransaction(p.ID, amount, models.TransactionTypeRedeem, "Code: "+clean)
	_, ok, err = s.repo.RedeemCode(rc, txn)
	if err != nil {
		return RedeemResult{}, err
	}
	if !ok {
		return RedeemResult{Message: messages.RedeemCodeAlreadyUsed()}, nil
	}

	return RedeemResult{
		Success: true,
		Amount:  amount,
		Message: messages.RedeemSuccess(amount),
	}, nil
}

// DeductCredits subtracts the amount when the balance covers it and reports
// whether the paid action may proceed. A shortfall leaves the balance
// untouched.
func (s *Service) DeductCredits(deviceKey string, amount int64) (bool, error) {
	if amount < 0 {
		return false, errors.New("credit amount must not be negative")
	}
	p, err := s.GetProfile(deviceKey)
	if err != nil {
		return false, err
	}
	_, ok, err := s.repo.DeductCredits(p.ID, amount)
	return ok, err
}

// VerifySlipAndAddCredits grants credits for an uploaded payment slip
// exactly once per distinct slip content. The digest of the slip bytes is
// the duplicate-use guard.
func (s *Service) VerifySlipAndAddCredits(deviceKey string, slip []byte, expectedAmount int64, label string) (SlipResult, error) {
	if expectedAmount <= 0 {
		return SlipResult{}, errors.New("expected credit amount must be positive")
	}
	if len(slip) == 0 {
		return SlipResult{Message: messages.SlipMissing()}, nil
	}

	p, err := s.GetProfile(deviceKey)
	if err != nil {
		return SlipResult{}, err
	}

	sum := sha256.Sum256(slip)
	digest := hex.EncodeToString(sum[:])

	used, err := s.repo.HasVerifiedSlip(p.ID, digest)
	if err != nil {
		return SlipResult{}, err
	}
	if used {
		return SlipResult{Message: messages.SlipAlreadyUsed()}, nil
	}

	archiveKey := ""
	if s.archiver != nil {
		key, err := s.archiver.Archive(p.PublicID, digest, slip)
		if err != nil {
			log.Printf("slip archive failed for profile %s: %v", p.PublicID, err)
		} else {
			archiveKey = key
		}
	}

	// Digest record and credit grant persist together: a storage failure
	// leaves the slip unconsumed so the customer can retry.
	rec := &models.VerifiedSlip{
		ProfileID:    p.ID,
		Digest:       digest,
		CreditsAdded: expectedAmount,
		PackageName:  label,
		ArchiveKey:   archiveKey,
	}
	txn := models.NewCreditTransaction(p.ID, expectedAmount, models.TransactionTypeSlip, label)
	_, ok, err := s.repo.GrantSlip(rec, txn)
	if err != nil {
		return SlipResult{}, err
	}
	if !ok {
		return SlipResult{Message: messages.SlipAlreadyUsed()}, nil
	}

	return SlipResult{
		Success: true,
		Message: messages.SlipVerified(expectedAmount),
	}, nil
}

// RecordGeneratedAsset prepends an asset to the capped gallery and bumps
// the matching stat counter. It does not deduct credits; spending is the
// caller's step.
func (s *Service) RecordGeneratedAsset(deviceKey string, in NewAsset) (*models.CustomerProfile, error) {
	if strings.TrimSpace(in.URL) == "" {
		return nil, errors.New("asset url is required")
	}
	if !models.IsValidAssetType(in.Type) {
		return nil, errors.New("unknown asset type: " + in.Type)
	}
	p, err := s.GetProfile(deviceKey)
	if err != nil {
		return nil, err
	}
	asset := models.NewGeneratedAsset(p.ID, in.URL, in.Type, in.Headline, in.Subheadline, in.Vibe)
	return s.repo.AppendAsset(asset)
}

// ReserveCredits holds the amount aside for an in-flight generation
// attempt. Returns ok=false when the balance does not cover it.
func (s *Service) ReserveCredits(deviceKey string, amount int64, purpose string) (*models.CreditReservation, bool, error) {
	if amount < 0 {
		return nil, false, errors.New("credit amount must not be negative")
	}
	p, err := s.GetProfile(deviceKey)
	if err != nil {
		return nil, false, err
	}
	res := models.NewCreditReservation(p.ID, amount, purpose)
	ok, err := s.repo.ReserveCredits(res)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return res, true, nil
}

// CommitReservation finalizes the spend of a pending reservation.
func (s *Service) CommitReservation(deviceKey, reservationID string) error {
	p, err := s.GetProfile(deviceKey)
	if err != nil {
		return err
	}
	_, err = s.repo.CommitReservation(p.ID, reservationID)
	return err
}

// ReleaseReservation refunds a pending reservation after a failed
// generation attempt. Refunds happen exactly once.
func (s *Service) ReleaseReservation(deviceKey, reservationID string) error {
	p, err := s.GetProfile(deviceKey)
	if err != nil {
		return err
	}
	_, err = s.repo.ReleaseReservation(p.ID, reservationID)
	return err
}

// ListTransactions returns the newest-first capped transaction history.
func (s *Service) ListTransactions(deviceKey string) ([]models.CreditTransaction, error) {
	p, err := s.GetProfile(deviceKey)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(p.ID, models.MaxTransactionHistory)
}

// ListAssets returns the newest-first capped asset gallery.
func (s *Service) ListAssets(deviceKey string) ([]models.GeneratedAsset, error) {
	p, err := s.GetProfile(deviceKey)
	if err != nil {
		return nil, err
	}
	return s.repo.ListAssets(p.ID, models.MaxGeneratedAssets)
}

// ListVerifiedSlips exposes recent accepted slips for the admin review
// surface.
func (s *Service) ListVerifiedSlips(limit int) ([]models.VerifiedSlip, error) {
	return s.repo.ListVerifiedSlips(limit)
}
