package utils

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisClient is an optional shared Redis client used for cross-process
// coordination of the scheduled passes. It will be nil when REDIS_ADDR
// is not configured; the passes then rely on row locks alone.
var RedisClient *redis.Client

func init() {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return
	}
	// If someone accidentally put a trailing colon or space, sanitize common mistakes
	addr = strings.ReplaceAll(addr, " ", "")
	opts := &redis.Options{Addr: addr}
	if p := os.Getenv("REDIS_PASS"); p != "" {
		opts.Password = p
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		var dbn int
		_, _ = fmt.Sscanf(dbStr, "%d", &dbn)
		opts.DB = dbn
	}
	rc := redis.NewClient(opts)
	ctx := context.Background()
	if err := rc.Ping(ctx).Err(); err != nil {
		fmt.Printf("warning: redis ping failed: %v\n", err)
		// don't fail startup for redis issues; the passes still work, just without the lease
		return
	}
	RedisClient = rc
}

// AcquirePassLease grabs a short-lived exclusive lease for a named
// scheduled pass, so overlapping cron triggers across replicas run it
// once. Returns true when this process holds the lease. With no Redis
// configured every caller gets the lease; row locks keep that safe.
func AcquirePassLease(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if RedisClient == nil {
		return true, nil
	}
	return RedisClient.SetNX(ctx, "pass_lease:"+name, time.Now().Unix(), ttl).Result()
}

// ReleasePassLease drops the lease early so the next trigger does not
// have to wait out the TTL.
func ReleasePassLease(ctx context.Context, name string) {
	if RedisClient == nil {
		return
	}
	_ = RedisClient.Del(ctx, "pass_lease:"+name).Err()
}
