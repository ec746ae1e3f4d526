package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/app/models"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/cache"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/database"
)

const (
	CacheKeyAssetsTotal   = "statistics:assets:total"
	CacheKeyAssetsDaily   = "statistics:assets:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyProfiles      = "statistics:profiles:total"
	CacheKeyCreditsIssued = "statistics:credits:issued"
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData holds the platform statistics for the public stats endpoint
type StatisticsData struct {
	TodayAssets   int
	TotalProfiles int
	TotalAssets   int
	CreditsIssued int64
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache checks whether the statistics cache is stale
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the statistics cache when the interval elapsed
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		log.Println("Updating statistics cache...")
		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			log.Println("Statistics cache updated successfully")
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next read to refresh the cache
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	db := database.GetDB()

	// Count total generated assets
	var totalAssets int64
	if err := db.Model(&models.GeneratedAsset{}).Count(&totalAssets).Error; err != nil {
		log.Printf("Error counting total assets: %v", err)
		return err
	}

	// Count today's generated assets
	var todayAssets int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.GeneratedAsset{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayAssets).Error; err != nil {
		log.Printf("Error counting today's assets: %v", err)
		return err
	}

	// Count total customer profiles
	var totalProfiles int64
	if err := db.Model(&models.CustomerProfile{}).Count(&totalProfiles).Error; err != nil {
		log.Printf("Error counting total profiles: %v", err)
		return err
	}

	// Sum all credits ever granted through the ledger
	var creditsIssued int64
	if err := db.Model(&models.CreditTransaction{}).Select("COALESCE(SUM(credits_added), 0)").Scan(&creditsIssued).Error; err != nil {
		log.Printf("Error summing issued credits: %v", err)
		return err
	}

	// Store values in cache
	if err := cache.Set(CacheKeyAssetsTotal, strconv.FormatInt(totalAssets, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total assets: %v", err)
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyAssetsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayAssets, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's assets: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyProfiles, strconv.FormatInt(totalProfiles, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total profiles: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyCreditsIssued, strconv.FormatInt(creditsIssued, 10), CacheExpiration); err != nil {
		log.Printf("Error caching issued credits: %v", err)
		return err
	}

	log.Printf("Statistics updated in cache: Total Assets: %d, Today's Assets: %d, Total Profiles: %d, Credits Issued: %d",
		totalAssets, todayAssets, totalProfiles, creditsIssued)

	return nil
}

// GetTotalAssets returns the total number of generated assets from cache or database
func GetTotalAssets() int {
	val, err := cache.Get(CacheKeyAssetsTotal)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.GeneratedAsset{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total assets: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyAssetsTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total assets: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTodayAssets returns the number of assets generated today from cache or database
func GetTodayAssets() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyAssetsDaily, today)

	val, err := cache.Get(dailyKey)
	if err != nil {
		var count int64
		db := database.GetDB()
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		if err := db.Model(&models.GeneratedAsset{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
			log.Printf("Error counting today's assets: %v", err)
			return 0
		}

		if err := cache.Set(dailyKey, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching today's assets: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTotalProfiles returns the total number of customer profiles from cache or database
func GetTotalProfiles() int {
	val, err := cache.Get(CacheKeyProfiles)
	if err != nil {
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.CustomerProfile{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total profiles: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyProfiles, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total profiles: %v", err)
		}

		return int(count)
	}

	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetCreditsIssued returns the total credits granted through the ledger from cache or database
func GetCreditsIssued() int64 {
	val, err := cache.Get(CacheKeyCreditsIssued)
	if err != nil {
		var sum int64
		db := database.GetDB()
		if err := db.Model(&models.CreditTransaction{}).Select("COALESCE(SUM(credits_added), 0)").Scan(&sum).Error; err != nil {
			log.Printf("Error summing issued credits: %v", err)
			return 0
		}

		if err := cache.Set(CacheKeyCreditsIssued, strconv.FormatInt(sum, 10), CacheExpiration); err != nil {
			log.Printf("Error caching issued credits: %v", err)
		}

		return sum
	}

	sum, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return sum
}

// GetStatisticsData returns all statistics data as StatisticsData structure
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TodayAssets:   GetTodayAssets(),
		TotalProfiles: GetTotalProfiles(),
		TotalAssets:   GetTotalAssets(),
		CreditsIssued: GetCreditsIssued(),
	}
}
