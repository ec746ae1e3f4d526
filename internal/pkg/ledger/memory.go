package ledger

import (
	"sort"
	"sync"
	"time"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/app/models"
)

// memoryRepository is an in-memory Repository used by tests and local
// development. A single mutex serializes all mutations, which gives it the
// same atomicity guarantees as the transactional GORM implementation.
type memoryRepository struct {
	mu           sync.Mutex
	nextID       uint
	profiles     map[uint]*models.CustomerProfile
	byDeviceKey  map[string]uint
	transactions map[uint][]models.CreditTransaction
	assets       map[uint][]models.GeneratedAsset
	redeemed     map[uint]map[string]bool
	slips        map[uint]map[string]bool
	slipLog      []models.VerifiedSlip
	reservations map[string]*models.CreditReservation
}

// NewMemoryRepository creates an empty in-memory ledger repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		nextID:       1,
		profiles:     make(map[uint]*models.CustomerProfile),
		byDeviceKey:  make(map[string]uint),
		transactions: make(map[uint][]models.CreditTransaction),
		assets:       make(map[uint][]models.GeneratedAsset),
		redeemed:     make(map[uint]map[string]bool),
		slips:        make(map[uint]map[string]bool),
		reservations: make(map[string]*models.CreditReservation),
	}
}

func (m *memoryRepository) GetProfileByDeviceKey(deviceKey string) (*models.CustomerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byDeviceKey[deviceKey]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return cloneProfile(m.profiles[id]), nil
}

func (m *memoryRepository) CreateProfile(p *models.CustomerProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.nextID
	m.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.profiles[p.ID] = cloneProfile(p)
	m.byDeviceKey[p.DeviceKey] = p.ID
	return nil
}

func (m *memoryRepository) UpdateProfile(profileID uint, apply func(p *models.CustomerProfile) error) (*models.CustomerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.profiles[profileID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	// Apply against a copy so a failed apply leaves the row untouched.
	work := cloneProfile(stored)
	if err := apply(work); err != nil {
		return nil, err
	}
	work.UpdatedAt = time.Now()
	m.profiles[profileID] = work
	return cloneProfile(work), nil
}

func (m *memoryRepository) AddCredits(profileID uint, amount int64, txn *models.CreditTransaction) (*models.CustomerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[profileID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	p.Credits += amount
	txn.CreatedAt = time.Now()
	m.transactions[profileID] = prependTransaction(m.transactions[profileID], *txn, models.MaxTransactionHistory)
	return cloneProfile(p), nil
}

func (m *memoryRepository) DeductCredits(profileID uint, amount int64) (*models.CustomerProfile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[profileID]
	if !ok {
		return nil, false, ErrProfileNotFound
	}
	if p.Credits < amount {
		return cloneProfile(p), false, nil
	}
	p.Credits -= amount
	return cloneProfile(p), true, nil
}

func (m *memoryRepository) ListTransactions(profileID uint, limit int) ([]models.CreditTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	txns := m.transactions[profileID]
	if limit > 0 && len(txns) > limit {
		txns = txns[:limit]
	}
	out := make([]models.CreditTransaction, len(txns))
	copy(out, txns)
	return out, nil
}

func (m *memoryRepository) AppendAsset(asset *models.GeneratedAsset) (*models.CustomerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[asset.ProfileID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	asset.CreatedAt = time.Now()
	m.assets[asset.ProfileID] = prependAsset(m.assets[asset.ProfileID], *asset, models.MaxGeneratedAssets)
	switch asset.Type {
	case models.AssetTypeImage:
		p.PhotosGenerated++
	case models.AssetTypeVideo:
		p.VideosGenerated++
	}
	return cloneProfile(p), nil
}

func (m *memoryRepository) ListAssets(profileID uint, limit int) ([]models.GeneratedAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assets := m.assets[profileID]
	if limit > 0 && len(assets) > limit {
		assets = assets[:limit]
	}
	out := make([]models.GeneratedAsset, len(assets))
	copy(out, assets)
	return out, nil
}

func (m *memoryRepository) TrimAssets(profileID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if assets := m.assets[profileID]; len(assets) > models.MaxGeneratedAssets {
		m.assets[profileID] = assets[:models.MaxGeneratedAssets]
	}
	return nil
}

func (m *memoryRepository) RedeemCode(rc *models.RedeemedCode, txn *models.CreditTransaction) (*models.CustomerProfile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[rc.ProfileID]
	if !ok {
		return nil, false, ErrProfileNotFound
	}
	if m.redeemed[rc.ProfileID][rc.Code] {
		return cloneProfile(p), false, nil
	}
	if m.redeemed[rc.ProfileID] == nil {
		m.redeemed[rc.ProfileID] = make(map[string]bool)
	}
	m.redeemed[rc.ProfileID][rc.Code] = true
	p.Credits += txn.CreditsAdded
	txn.CreatedAt = time.Now()
	m.transactions[rc.ProfileID] = prependTransaction(m.transactions[rc.ProfileID], *txn, models.MaxTransactionHistory)
	return cloneProfile(p), true, nil
}

func (m *memoryRepository) HasVerifiedSlip(profileID uint, digest string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.slips[profileID][digest], nil
}

func (m *memoryRepository) GrantSlip(slip *models.VerifiedSlip, txn *models.CreditTransaction) (*models.CustomerProfile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[slip.ProfileID]
	if !ok {
		return nil, false, ErrProfileNotFound
	}
	if m.slips[slip.ProfileID][slip.Digest] {
		return cloneProfile(p), false, nil
	}
	if m.slips[slip.ProfileID] == nil {
		m.slips[slip.ProfileID] = make(map[string]bool)
	}
	m.slips[slip.ProfileID][slip.Digest] = true
	slip.CreatedAt = time.Now()
	m.slipLog = append(m.slipLog, *slip)
	p.Credits += txn.CreditsAdded
	txn.CreatedAt = time.Now()
	m.transactions[slip.ProfileID] = prependTransaction(m.transactions[slip.ProfileID], *txn, models.MaxTransactionHistory)
	return cloneProfile(p), true, nil
}

func (m *memoryRepository) ListVerifiedSlips(limit int) ([]models.VerifiedSlip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.VerifiedSlip, len(m.slipLog))
	copy(out, m.slipLog)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepository) ReserveCredits(res *models.CreditReservation) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[res.ProfileID]
	if !ok {
		return false, ErrProfileNotFound
	}
	if p.Credits < res.Amount {
		return false, nil
	}
	p.Credits -= res.Amount
	res.CreatedAt = time.Now()
	stored := *res
	m.reservations[res.PublicID] = &stored
	return true, nil
}

func (m *memoryRepository) CommitReservation(profileID uint, publicID string) (*models.CreditReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.reservations[publicID]
	if !ok || res.ProfileID != profileID {
		return nil, ErrReservationNotFound
	}
	if !res.IsPending() {
		return nil, ErrReservationSettled
	}
	res.Status = models.ReservationStatusCommitted
	out := *res
	return &out, nil
}

func (m *memoryRepository) ReleaseReservation(profileID uint, publicID string) (*models.CreditReservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.reservations[publicID]
	if !ok || res.ProfileID != profileID {
		return nil, ErrReservationNotFound
	}
	if !res.IsPending() {
		return nil, ErrReservationSettled
	}
	p, ok := m.profiles[profileID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	res.Status = models.ReservationStatusReleased
	p.Credits += res.Amount
	out := *res
	return &out, nil
}

func cloneProfile(p *models.CustomerProfile) *models.CustomerProfile {
	out := *p
	return &out
}

func prependTransaction(list []models.CreditTransaction, txn models.CreditTransaction, keep int) []models.CreditTransaction {
	out := append([]models.CreditTransaction{txn}, list...)
	if len(out) > keep {
		out = out[:keep]
	}
	return out
}

func prependAsset(list []models.GeneratedAsset, asset models.GeneratedAsset, keep int) []models.GeneratedAsset {
	out := append([]models.GeneratedAsset{asset}, list...)
	if len(out) > keep {
		out = out[:keep]
	}
	return out
}
