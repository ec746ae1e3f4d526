package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/app/models"
)

const testDeviceKey = "device-test-1"

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()

	current := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(NewMemoryRepository(),
		WithLocation(time.UTC),
		WithClock(func() time.Time { return current }),
	)
	return svc, &current
}

func TestGetProfileCreatesWithDailyFreeCredits(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)

	assert.Equal(t, DailyFreeCredits, p.Credits)
	assert.Equal(t, "2025-03-10", p.LastFreeRefillOn)
	assert.Equal(t, models.TIER_FREE, p.PackageID)
	assert.Regexp(t, `^AM-[A-Z2-9]{6}$`, p.PublicID)
	assert.Zero(t, p.PhotosGenerated)
	assert.Zero(t, p.VideosGenerated)
}

func TestGetProfileIsIdempotentWithinADay(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)

	second, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)

	assert.Equal(t, first.Credits, second.Credits)
	assert.Equal(t, first.LastFreeRefillOn, second.LastFreeRefillOn)
	assert.Equal(t, first.PublicID, second.PublicID)
}

func TestDailyRefillIsAFloorNotAGrant(t *testing.T) {
	svc, clock := newTestService(t)

	_, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)

	// Spend down to 2, then cross midnight.
	ok, err := svc.DeductCredits(testDeviceKey, 3)
	require.NoError(t, err)
	require.True(t, ok)

	*clock = clock.Add(24 * time.Hour)
	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, DailyFreeCredits, p.Credits)
	assert.Equal(t, "2025-03-11", p.LastFreeRefillOn)
}

func TestDailyRefillDoesNotReduceAHighBalance(t *testing.T) {
	svc, clock := newTestService(t)

	_, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	_, err = svc.AddCredits(testDeviceKey, 100, models.TransactionTypeRedeem, "Top-up")
	require.NoError(t, err)

	*clock = clock.Add(24 * time.Hour)
	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)

	// Balance stays, refill date still advances.
	assert.Equal(t, int64(105), p.Credits)
	assert.Equal(t, "2025-03-11", p.LastFreeRefillOn)
}

func TestDeductCreditsNeverGoesNegative(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)

	ok, err := svc.DeductCredits(testDeviceKey, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second deduction would go negative: rejected whole, balance unchanged.
	ok, err = svc.DeductCredits(testDeviceKey, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Credits)
}

func TestRedeemScenario(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	require.Equal(t, int64(5), p.Credits)

	ok, err := svc.DeductCredits(testDeviceKey, 3)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.DeductCredits(testDeviceKey, 3)
	require.NoError(t, err)
	require.False(t, ok)

	res, err := svc.RedeemCode(testDeviceKey, "MAGIC150")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(150), res.Amount)

	p, err = svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, int64(152), p.Credits)
}

func TestRedeemInvalidCodeMutatesNothing(t *testing.T) {
	svc, _ := newTestService(t)

	before, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)

	res, err := svc.RedeemCode(testDeviceKey, "INVALID")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Zero(t, res.Amount)
	assert.NotEmpty(t, res.Message)

	after, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, before.Credits, after.Credits)

	txns, err := svc.ListTransactions(testDeviceKey)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestRedeemNormalizesInput(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.RedeemCode(testDeviceKey, "  lucky777  ")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(777), res.Amount)
}

func TestRedeemRecordsExactlyOneTransaction(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RedeemCode(testDeviceKey, "PRO500")
	require.NoError(t, err)

	txns, err := svc.ListTransactions(testDeviceKey)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, int64(500), txns[0].CreditsAdded)
	assert.Equal(t, models.TransactionTypeRedeem, txns[0].Type)
	assert.Equal(t, "Code: PRO500", txns[0].PackageName)
}

func TestRedeemCodeOncePerProfile(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.RedeemCode(testDeviceKey, "MAGIC150")
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.RedeemCode(testDeviceKey, "MAGIC150")
	require.NoError(t, err)
	assert.False(t, second.Success)

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, DailyFreeCredits+150, p.Credits)
}

func TestTransactionHistoryCapAndOrder(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < models.MaxTransactionHistory+10; i++ {
		_, err := svc.AddCredits(testDeviceKey, int64(i), models.TransactionTypeSlip, fmt.Sprintf("grant-%d", i))
		require.NoError(t, err)
	}

	txns, err := svc.ListTransactions(testDeviceKey)
	require.NoError(t, err)
	assert.Len(t, txns, models.MaxTransactionHistory)
	// Newest first.
	assert.Equal(t, fmt.Sprintf("grant-%d", models.MaxTransactionHistory+9), txns[0].PackageName)
}

func TestGeneratedAssetCapAndOrder(t *testing.T) {
	svc, _ := newTestService(t)

	for i := 0; i < models.MaxGeneratedAssets+5; i++ {
		_, err := svc.RecordGeneratedAsset(testDeviceKey, NewAsset{
			URL:  fmt.Sprintf("https://cdn.example/asset-%d.png", i),
			Type: models.AssetTypeImage,
		})
		require.NoError(t, err)
	}

	assets, err := svc.ListAssets(testDeviceKey)
	require.NoError(t, err)
	assert.Len(t, assets, models.MaxGeneratedAssets)
	assert.Equal(t, fmt.Sprintf("https://cdn.example/asset-%d.png", models.MaxGeneratedAssets+4), assets[0].URL)
}

func TestRecordGeneratedAssetBumpsStats(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.RecordGeneratedAsset(testDeviceKey, NewAsset{
		URL:      "x",
		Type:     models.AssetTypeImage,
		Headline: "แคมเปญใหม่",
		Vibe:     "Minimal Luxury",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.PhotosGenerated)
	assert.Zero(t, p.VideosGenerated)

	p, err = svc.RecordGeneratedAsset(testDeviceKey, NewAsset{URL: "y", Type: models.AssetTypeVideo})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.VideosGenerated)

	assets, err := svc.ListAssets(testDeviceKey)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "y", assets[0].URL)
	assert.Equal(t, "x", assets[1].URL)
	assert.Equal(t, "แคมเปญใหม่", assets[1].Headline)
}

func TestRecordGeneratedAssetRejectsUnknownType(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RecordGeneratedAsset(testDeviceKey, NewAsset{URL: "x", Type: "hologram"})
	assert.Error(t, err)
}

func TestVerifySlipGrantsOncePerDigest(t *testing.T) {
	svc, _ := newTestService(t)

	slip := []byte("fake-slip-image-bytes")

	first, err := svc.VerifySlipAndAddCredits(testDeviceKey, slip, 500, "Business Pro")
	require.NoError(t, err)
	assert.True(t, first.Success)

	second, err := svc.VerifySlipAndAddCredits(testDeviceKey, slip, 500, "Business Pro")
	require.NoError(t, err)
	assert.False(t, second.Success)

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, DailyFreeCredits+500, p.Credits)
}

func TestVerifySlipRejectsEmptyProof(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.VerifySlipAndAddCredits(testDeviceKey, nil, 150, "Starter Bundle")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
}

type fakeArchiver struct {
	keys []string
	fail bool
}

func (f *fakeArchiver) Archive(profilePublicID, digest string, slip []byte) (string, error) {
	if f.fail {
		return "", fmt.Errorf("archive unavailable")
	}
	key := "slips/" + profilePublicID + "/" + digest
	f.keys = append(f.keys, key)
	return key, nil
}

func TestVerifySlipArchivesAcceptedProofs(t *testing.T) {
	repo := NewMemoryRepository()
	archiver := &fakeArchiver{}
	svc := NewService(repo, WithLocation(time.UTC), WithSlipArchiver(archiver))

	slip := []byte("slip-bytes")
	res, err := svc.VerifySlipAndAddCredits(testDeviceKey, slip, 150, "Starter Bundle")
	require.NoError(t, err)
	require.True(t, res.Success)

	sum := sha256.Sum256(slip)
	require.Len(t, archiver.keys, 1)
	assert.Contains(t, archiver.keys[0], hex.EncodeToString(sum[:]))

	slips, err := svc.ListVerifiedSlips(10)
	require.NoError(t, err)
	require.Len(t, slips, 1)
	assert.Equal(t, archiver.keys[0], slips[0].ArchiveKey)
}

func TestVerifySlipArchiveFailureDoesNotBlockGrant(t *testing.T) {
	svc := NewService(NewMemoryRepository(), WithLocation(time.UTC), WithSlipArchiver(&fakeArchiver{fail: true}))

	res, err := svc.VerifySlipAndAddCredits(testDeviceKey, []byte("slip"), 150, "Starter Bundle")
	require.NoError(t, err)
	assert.True(t, res.Success)

	slips, err := svc.ListVerifiedSlips(10)
	require.NoError(t, err)
	require.Len(t, slips, 1)
	assert.Empty(t, slips[0].ArchiveKey)
}

func TestReservationCommitLifecycle(t *testing.T) {
	svc, _ := newTestService(t)

	res, ok, err := svc.ReserveCredits(testDeviceKey, 3, "render_2k")
	require.NoError(t, err)
	require.True(t, ok)

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Credits)

	require.NoError(t, svc.CommitReservation(testDeviceKey, res.PublicID))

	// Settled reservations cannot be settled again.
	err = svc.ReleaseReservation(testDeviceKey, res.PublicID)
	assert.ErrorIs(t, err, ErrReservationSettled)

	p, err = svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.Credits)
}

func TestReservationReleaseRefundsOnce(t *testing.T) {
	svc, _ := newTestService(t)

	res, ok, err := svc.ReserveCredits(testDeviceKey, 5, "video_motion")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.ReleaseReservation(testDeviceKey, res.PublicID))

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, DailyFreeCredits, p.Credits)

	err = svc.ReleaseReservation(testDeviceKey, res.PublicID)
	assert.ErrorIs(t, err, ErrReservationSettled)

	p, err = svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, DailyFreeCredits, p.Credits)
}

func TestReserveCreditsInsufficientBalance(t *testing.T) {
	svc, _ := newTestService(t)

	_, ok, err := svc.ReserveCredits(testDeviceKey, 10, "video_motion")
	require.NoError(t, err)
	assert.False(t, ok)

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, DailyFreeCredits, p.Credits)
}

func TestUpdateProfileShallowMerge(t *testing.T) {
	svc, _ := newTestService(t)

	name := "ร้านกาแฟแสงจันทร์"
	tier := models.TIER_BUSINESS
	p, err := svc.UpdateProfile(testDeviceKey, ProfileUpdate{Name: &name, PackageID: &tier})
	require.NoError(t, err)

	assert.Equal(t, name, p.Name)
	assert.Equal(t, models.TIER_BUSINESS, p.PackageID)
	// Untouched fields keep their defaults.
	assert.Equal(t, "Professional Creator", p.Niche)
	assert.NotNil(t, p.LastVisitAt)
}

func TestUpdateProfileRejectsUnknownTier(t *testing.T) {
	svc, _ := newTestService(t)

	tier := "platinum"
	_, err := svc.UpdateProfile(testDeviceKey, ProfileUpdate{PackageID: &tier})
	assert.Error(t, err)
}

func TestAddCreditsRejectsNegativeAmount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddCredits(testDeviceKey, -1, models.TransactionTypeRedeem, "bad")
	assert.Error(t, err)
}

func TestGetProfileRequiresDeviceKey(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetProfile("   ")
	assert.Error(t, err)
}

// flakyRepository fails grant operations a set number of times before
// delegating, simulating transient storage outages.
type flakyRepository struct {
	Repository
	failRedeems int
	failGrants  int
}

func (f *flakyRepository) RedeemCode(rc *models.RedeemedCode, txn *models.CreditTransaction) (*models.CustomerProfile, bool, error) {
	if f.failRedeems > 0 {
		f.failRedeems--
		return nil, false, fmt.Errorf("storage unavailable")
	}
	return f.Repository.RedeemCode(rc, txn)
}

func (f *flakyRepository) GrantSlip(slip *models.VerifiedSlip, txn *models.CreditTransaction) (*models.CustomerProfile, bool, error) {
	if f.failGrants > 0 {
		f.failGrants--
		return nil, false, fmt.Errorf("storage unavailable")
	}
	return f.Repository.GrantSlip(slip, txn)
}

func TestRedeemCodeStorageFailureLeavesCodeRedeemable(t *testing.T) {
	repo := &flakyRepository{Repository: NewMemoryRepository(), failRedeems: 1}
	svc := NewService(repo, WithLocation(time.UTC))

	_, err := svc.RedeemCode(testDeviceKey, "MAGIC150")
	require.Error(t, err)

	// The failed attempt must not have consumed the code.
	res, err := svc.RedeemCode(testDeviceKey, "MAGIC150")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(150), res.Amount)

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, DailyFreeCredits+150, p.Credits)
}

func TestVerifySlipStorageFailureLeavesSlipUnconsumed(t *testing.T) {
	repo := &flakyRepository{Repository: NewMemoryRepository(), failGrants: 1}
	svc := NewService(repo, WithLocation(time.UTC))

	slip := []byte("slip-bytes")
	_, err := svc.VerifySlipAndAddCredits(testDeviceKey, slip, 500, "Business Pro")
	require.Error(t, err)

	res, err := svc.VerifySlipAndAddCredits(testDeviceKey, slip, 500, "Business Pro")
	require.NoError(t, err)
	assert.True(t, res.Success)

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Equal(t, DailyFreeCredits+500, p.Credits)

	slips, err := svc.ListVerifiedSlips(10)
	require.NoError(t, err)
	assert.Len(t, slips, 1)
}

// interleavingRepository fires a callback once, just before the next
// profile write, simulating a concurrent mutation landing between the
// service's read and its write.
type interleavingRepository struct {
	Repository
	beforeWrite func()
}

func (r *interleavingRepository) UpdateProfile(profileID uint, apply func(*models.CustomerProfile) error) (*models.CustomerProfile, error) {
	if r.beforeWrite != nil {
		fire := r.beforeWrite
		r.beforeWrite = nil
		fire()
	}
	return r.Repository.UpdateProfile(profileID, apply)
}

func TestDailyRefillPreservesConcurrentGrant(t *testing.T) {
	inner := NewMemoryRepository()
	repo := &interleavingRepository{Repository: inner}
	current := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, WithLocation(time.UTC), WithClock(func() time.Time { return current }))

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	_, err = svc.AddCredits(testDeviceKey, 100, models.TransactionTypeRedeem, "Top-up")
	require.NoError(t, err)

	repo.beforeWrite = func() {
		txn := models.NewCreditTransaction(p.ID, 50, models.TransactionTypeRedeem, "landed mid-refill")
		_, err := inner.AddCredits(p.ID, 50, txn)
		require.NoError(t, err)
	}

	current = current.Add(24 * time.Hour)
	got, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)

	// 5 + 100 + the concurrent 50 all survive the refill write.
	assert.Equal(t, int64(155), got.Credits)
	assert.Equal(t, "2025-03-11", got.LastFreeRefillOn)
}

func TestUpdateProfilePreservesConcurrentSpend(t *testing.T) {
	inner := NewMemoryRepository()
	repo := &interleavingRepository{Repository: inner}
	svc := NewService(repo, WithLocation(time.UTC))

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)

	repo.beforeWrite = func() {
		_, ok, err := inner.DeductCredits(p.ID, 3)
		require.NoError(t, err)
		require.True(t, ok)
	}

	name := "ร้านกาแฟแสงจันทร์"
	got, err := svc.UpdateProfile(testDeviceKey, ProfileUpdate{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, name, got.Name)
	assert.Equal(t, int64(2), got.Credits)
}

func TestUpdateProfileInvalidTierMutatesNothing(t *testing.T) {
	svc, _ := newTestService(t)

	name := "ชื่อใหม่"
	tier := "platinum"
	_, err := svc.UpdateProfile(testDeviceKey, ProfileUpdate{Name: &name, PackageID: &tier})
	require.ErrorIs(t, err, ErrInvalidUpdate)

	p, err := svc.GetProfile(testDeviceKey)
	require.NoError(t, err)
	assert.Empty(t, p.Name)
}
