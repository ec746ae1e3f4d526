package counter

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/cache"
	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/database"
)

const operationRunsKey = "studio:counters:ops"

// FlushInterval is how often the background flusher drains the Redis
// counters into the operation_stats table.
const FlushInterval = 1 * time.Minute

// AddOperationRun increments the pending run counter for a studio operation in Redis
func AddOperationRun(op string) error {
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, operationRunsKey, op, 1).Err()
}

// FlushAll flushes buffered operation counters to the database
func FlushAll() error {
	return flushOperationRuns()
}

// RunPeriodicFlush drains the buffered counters on a fixed interval. Runs
// until the process exits; start it in a goroutine from main.
func RunPeriodicFlush(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if err := FlushAll(); err != nil {
			log.Printf("operation counter flush failed: %v", err)
		}
	}
}

// flushOperationRuns drains the Redis hash atomically and applies batched
// upserts to the operation_stats table. Uses RENAME to a temporary key for
// atomic drain without losing in-flight increments.
func flushOperationRuns() error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", operationRunsKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", operationRunsKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		// Some Redis libs return redis.Nil; treat as empty
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	query, args := buildOperationUpsert(data)
	if query == "" {
		return nil
	}

	db := database.GetDB()
	if err := db.Exec(query, args...).Error; err != nil {
		return err
	}
	return nil
}

// buildOperationUpsert turns the drained hash into one batched upsert.
// Operations are ordered to keep row-lock acquisition deterministic across
// concurrent flushers. Returns an empty query when nothing needs writing.
func buildOperationUpsert(data map[string]string) (string, []interface{}) {
	type pair struct {
		op  string
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		inc, err := strconv.ParseInt(v, 10, 64)
		if err != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{op: k, inc: inc})
	}
	if len(pairs) == 0 {
		return "", nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].op < pairs[j].op })

	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*2)
	builder.WriteString("INSERT INTO operation_stats (operation, total_runs) VALUES ")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("(?, ?)")
		args = append(args, p.op, p.inc)
	}
	builder.WriteString(" ON DUPLICATE KEY UPDATE total_runs = total_runs + VALUES(total_runs)")
	return builder.String(), args
}
